package eval

import "math"

// Math library built-ins.

const (
	MathSqrt  BuiltIn = "MATH_SQRT"
	MathSin   BuiltIn = "MATH_SIN"
	MathCos   BuiltIn = "MATH_COS"
	MathExp   BuiltIn = "MATH_EXP"
	MathLn    BuiltIn = "MATH_LN"
	MathPow   BuiltIn = "MATH_POW"
	RealFloor BuiltIn = "REAL_FLOOR"
	RealCeil  BuiltIn = "REAL_CEIL"
	RealFromInt BuiltIn = "REAL_FROM_INT"
	RealRound   BuiltIn = "REAL_ROUND"
)

func init() {
	real1 := func(tag BuiltIn, fn func(float64) float64) {
		register(tag, 1, false, func(args []Value) (Value, error) {
			return &RealValue{Value: fn(args[0].(*RealValue).Value)}, nil
		})
	}
	real1(MathSqrt, math.Sqrt)
	real1(MathSin, math.Sin)
	real1(MathCos, math.Cos)
	real1(MathExp, math.Exp)
	real1(MathLn, math.Log)
	register(MathPow, 2, true, func(args []Value) (Value, error) {
		return &RealValue{Value: math.Pow(args[0].(*RealValue).Value, args[1].(*RealValue).Value)}, nil
	})
	register(RealFloor, 1, false, func(args []Value) (Value, error) {
		return &IntValue{Value: int(math.Floor(args[0].(*RealValue).Value))}, nil
	})
	register(RealCeil, 1, false, func(args []Value) (Value, error) {
		return &IntValue{Value: int(math.Ceil(args[0].(*RealValue).Value))}, nil
	})
	register(RealRound, 1, false, func(args []Value) (Value, error) {
		return &IntValue{Value: int(math.Round(args[0].(*RealValue).Value))}, nil
	})
	register(RealFromInt, 1, false, func(args []Value) (Value, error) {
		return &RealValue{Value: float64(args[0].(*IntValue).Value)}, nil
	})
}

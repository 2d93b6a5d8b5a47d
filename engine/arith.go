package engine

// Binary arithmetic and comparison semantics. Numeric coercion is an
// explicit match on (Kind, Kind), never an implicit Go conversion.

func bothNumeric(a, b Value) bool { return isNumeric(a) && isNumeric(b) }

// widen reports whether either operand is a Float, in which case both
// should be read through AsFloat rather than AsInt.
func widen(a, b Value) bool { return a.Kind == KindFloat || b.Kind == KindFloat }

// Add implements ADD: numeric add with float widening; undefined for
// Bool/Nil/Str/Native operands.
func Add(a, b Value) (Value, error) {
	if !bothNumeric(a, b) {
		return Value{}, ErrTypeMismatch
	}
	if widen(a, b) {
		af, _ := a.AsFloat()
		bf, _ := b.AsFloat()
		return Float(af + bf), nil
	}
	ai, _ := a.AsInt()
	bi, _ := b.AsInt()
	return Int(ai + bi), nil
}

func Sub(a, b Value) (Value, error) {
	if !bothNumeric(a, b) {
		return Value{}, ErrTypeMismatch
	}
	if widen(a, b) {
		af, _ := a.AsFloat()
		bf, _ := b.AsFloat()
		return Float(af - bf), nil
	}
	ai, _ := a.AsInt()
	bi, _ := b.AsInt()
	return Int(ai - bi), nil
}

func Mul(a, b Value) (Value, error) {
	if !bothNumeric(a, b) {
		return Value{}, ErrTypeMismatch
	}
	if widen(a, b) {
		af, _ := a.AsFloat()
		bf, _ := b.AsFloat()
		return Float(af * bf), nil
	}
	ai, _ := a.AsInt()
	bi, _ := b.AsInt()
	return Int(ai * bi), nil
}

// Div implements DIV. Integer division by zero returns ErrDivisionByZero;
// floating point division follows IEEE-754 and never errors.
func Div(a, b Value) (Value, error) {
	if !bothNumeric(a, b) {
		return Value{}, ErrTypeMismatch
	}
	if widen(a, b) {
		af, _ := a.AsFloat()
		bf, _ := b.AsFloat()
		return Float(af / bf), nil
	}
	ai, _ := a.AsInt()
	bi, _ := b.AsInt()
	if bi == 0 {
		return Value{}, ErrDivisionByZero
	}
	return Int(ai / bi), nil
}

// compareNumeric returns -1/0/1 after widening, or an error for non-numeric
// operands. Shared by LT/GT/LE/GE.
func compareNumeric(a, b Value) (int, error) {
	if !bothNumeric(a, b) {
		return 0, ErrTypeMismatch
	}
	if widen(a, b) {
		af, _ := a.AsFloat()
		bf, _ := b.AsFloat()
		switch {
		case af < bf:
			return -1, nil
		case af > bf:
			return 1, nil
		default:
			return 0, nil
		}
	}
	ai, _ := a.AsInt()
	bi, _ := b.AsInt()
	switch {
	case ai < bi:
		return -1, nil
	case ai > bi:
		return 1, nil
	default:
		return 0, nil
	}
}

func Lt(a, b Value) (Value, error) {
	c, err := compareNumeric(a, b)
	if err != nil {
		return Value{}, err
	}
	return Bool(c < 0), nil
}

func Gt(a, b Value) (Value, error) {
	c, err := compareNumeric(a, b)
	if err != nil {
		return Value{}, err
	}
	return Bool(c > 0), nil
}

func Le(a, b Value) (Value, error) {
	c, err := compareNumeric(a, b)
	if err != nil {
		return Value{}, err
	}
	return Bool(c <= 0), nil
}

func Ge(a, b Value) (Value, error) {
	c, err := compareNumeric(a, b)
	if err != nil {
		return Value{}, err
	}
	return Bool(c >= 0), nil
}

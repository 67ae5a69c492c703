/*
Copyright (C) 2024-2026 Carl-Philip Hänsch

 This program is free software: you can redistribute it and/or modify
 it under the terms of the GNU General Public License as published by
 the Free Software Foundation, either version 3 of the License, or
 (at your option) any later version.

 This program is distributed in the hope that it will be useful,
 but WITHOUT ANY WARRANTY; without even the implied warranty of
 MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 GNU General Public License for more details.

 You should have received a copy of the GNU General Public License
 along with this program. If not, see <https://www.gnu.org/licenses/>.
*/

package ast

import (
	"math"
	"strings"
)

// optimizeExpr rewrites one expression, recursing bottom-up into every
// child first.
func (o *optimizer) optimizeExpr(n *Node) *Node {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case KindNumberLit, KindStringLit:
		return n

	case KindVariable:
		return o.propagateConst(n)

	case KindUnary:
		return o.optimizeUnary(n)

	case KindBinary:
		return o.optimizeBinary(n)

	case KindCall:
		return o.optimizeCall(n)

	case KindMethodCall:
		out := o.newNode(KindMethodCall)
		*out = *n
		out.Recv = o.optimizeExpr(n.Recv)
		out.Args = o.optimizeArgs(n.Args)
		return out

	case KindMember:
		out := o.newNode(KindMember)
		*out = *n
		out.Object = o.optimizeExpr(n.Object)
		return out

	case KindIndex:
		out := o.newNode(KindIndex)
		*out = *n
		out.Object = o.optimizeExpr(n.Object)
		out.Indices = o.optimizeArgs(n.Indices)
		return out

	case KindCondExpr:
		return o.optimizeCondExpr(n)

	case KindSpawn, KindAwait:
		out := o.newNode(n.Kind)
		*out = *n
		out.Body = o.optimizeStmt(n.Body)
		return out

	default:
		return n
	}
}

func (o *optimizer) optimizeArgs(args []*Node) []*Node {
	if args == nil {
		return nil
	}
	out := make([]*Node, len(args))
	for i, a := range args {
		out[i] = o.optimizeExpr(a)
	}
	return out
}

// propagateConst implements rule 2: CONST propagation.
func (o *optimizer) propagateConst(n *Node) *Node {
	name := strings.ToUpper(n.Name)
	if v, ok := o.syms.Lookup(name); ok {
		o.c.ConstantsPropagated++
		lit := o.newNode(KindNumberLit)
		lit.Pos = n.Pos
		if v.Kind == ValString {
			lit.Kind = KindStringLit
		}
		lit.Value = v
		return lit
	}
	return n
}

// isConstNumber reports whether n is a numeric literal or a unary-minus
// of one, and returns its value widened appropriately.
func isConstNumber(n *Node) (Value, bool) {
	if n == nil {
		return Value{}, false
	}
	if n.Kind == KindNumberLit && n.Value.IsNumeric() {
		return n.Value, true
	}
	if n.Kind == KindUnary && n.UnOp == OpNeg {
		if v, ok := isConstNumber(n.Operand); ok {
			if v.Kind == ValInteger {
				return IntValue(-v.I), true
			}
			return FloatValue(-v.F), true
		}
	}
	return Value{}, false
}

func isConstString(n *Node) (string, bool) {
	if n != nil && n.Kind == KindStringLit && n.Value.Kind == ValString {
		return n.Value.S, true
	}
	return "", false
}

func (o *optimizer) litInt(i int64) *Node {
	n := o.newNode(KindNumberLit)
	n.Value = IntValue(i)
	return n
}

func (o *optimizer) litFloat(f float64) *Node {
	n := o.newNode(KindNumberLit)
	n.Value = FloatValue(f)
	return n
}

func (o *optimizer) litString(s string) *Node {
	n := o.newNode(KindStringLit)
	n.Value = StringValue(s)
	return n
}

// optimizeUnary implements rule 6 (double negation / bitwise NOT).
func (o *optimizer) optimizeUnary(n *Node) *Node {
	operand := o.optimizeExpr(n.Operand)

	switch n.UnOp {
	case OpNeg:
		// -(-x) -> x
		if operand.Kind == KindUnary && operand.UnOp == OpNeg {
			o.c.DoubleNegations++
			return operand.Operand
		}
		if v, ok := isConstNumber(operand); ok {
			o.c.ConstantsFolded++
			if v.Kind == ValInteger {
				return o.litInt(-v.I)
			}
			return o.litFloat(-v.F)
		}

	case OpNot:
		// NOT NOT x -> x
		if operand.Kind == KindUnary && operand.UnOp == OpNot {
			o.c.DoubleNegations++
			return operand.Operand
		}
		// NOT on a literal: bitwise complement of the integer cast,
		// never logical.
		if v, ok := isConstNumber(operand); ok {
			o.c.ConstantsFolded++
			return o.litInt(^toInt64(v))
		}
	}

	out := o.newNode(KindUnary)
	out.Pos = n.Pos
	out.UnOp = n.UnOp
	out.Operand = operand
	return out
}

func toInt64(v Value) int64 {
	if v.Kind == ValInteger {
		return v.I
	}
	return int64(v.F)
}

// optimizeBinary implements rules 1,3,4,5,7,8,9 in sequence: fold
// string concatenation, fold constants, reduce power, apply algebraic
// identities, rewrite division/modulo, apply boolean identities.
func (o *optimizer) optimizeBinary(n *Node) *Node {
	left := o.optimizeExpr(n.Left)
	right := o.optimizeExpr(n.Right)

	if out := o.foldStringConcat(n, left, right); out != nil {
		return out
	}
	if out := o.foldNumericConstant(n, left, right); out != nil {
		return out
	}
	if n.BinOp == OpPow {
		if out := o.reducePower(n, left, right); out != nil {
			return out
		}
	}
	if out := o.algebraicIdentity(n, left, right); out != nil {
		return out
	}
	if n.BinOp == OpDiv {
		if out := o.divToMul(n, left, right); out != nil {
			return out
		}
	}
	if n.BinOp == OpMod {
		if out := o.modToAnd(n, left, right); out != nil {
			return out
		}
	}
	if out := o.booleanIdentity(n, left, right); out != nil {
		return out
	}

	out := o.newNode(KindBinary)
	out.Pos = n.Pos
	out.BinOp = n.BinOp
	out.Left = left
	out.Right = right
	return out
}

// foldStringConcat implements rule 3.
func (o *optimizer) foldStringConcat(n *Node, left, right *Node) *Node {
	if n.BinOp != OpAdd && n.BinOp != OpConcat {
		return nil
	}
	if ls, ok := isConstString(left); ok {
		if rs, ok := isConstString(right); ok {
			o.c.StringsFolded++
			return o.litString(ls + rs)
		}
		if ls == "" && IsStaticallyString(right) {
			o.c.StringsFolded++
			return right
		}
	}
	if rs, ok := isConstString(right); ok {
		if rs == "" && IsStaticallyString(left) {
			o.c.StringsFolded++
			return left
		}
	}
	return nil
}

// foldNumericConstant implements rule 1.
func (o *optimizer) foldNumericConstant(n *Node, left, right *Node) *Node {
	lv, lok := isConstNumber(left)
	rv, rok := isConstNumber(right)
	if !lok || !rok {
		return nil
	}
	isIntOp := n.BinOp == OpMod || n.BinOp == OpAnd || n.BinOp == OpOr || n.BinOp == OpXor
	isIntDiv := n.BinOp == OpDiv && lv.Kind == ValInteger && rv.Kind == ValInteger

	switch n.BinOp {
	case OpAdd, OpSub, OpMul:
		if lv.Kind == ValInteger && rv.Kind == ValInteger {
			var r int64
			switch n.BinOp {
			case OpAdd:
				r = lv.I + rv.I
			case OpSub:
				r = lv.I - rv.I
			case OpMul:
				r = lv.I * rv.I
			}
			o.c.ConstantsFolded++
			return o.litInt(r)
		}
		a, b := lv.AsFloat(), rv.AsFloat()
		var r float64
		switch n.BinOp {
		case OpAdd:
			r = a + b
		case OpSub:
			r = a - b
		case OpMul:
			r = a * b
		}
		if math.IsNaN(r) || math.IsInf(r, 0) {
			return nil
		}
		o.c.ConstantsFolded++
		return o.litFloat(r)

	case OpDiv:
		b := rv.AsFloat()
		if b == 0 {
			return nil // do not fold division by zero
		}
		if isIntDiv {
			r := lv.I / rv.I
			o.c.ConstantsFolded++
			return o.litInt(r)
		}
		r := lv.AsFloat() / b
		if math.IsNaN(r) || math.IsInf(r, 0) {
			return nil
		}
		o.c.ConstantsFolded++
		return o.litFloat(r)

	case OpMod:
		if rv.I == 0 {
			return nil
		}
		o.c.ConstantsFolded++
		return o.litInt(toInt64(lv) % toInt64(rv))

	case OpAnd:
		o.c.ConstantsFolded++
		return o.litInt(toInt64(lv) & toInt64(rv))
	case OpOr:
		o.c.ConstantsFolded++
		return o.litInt(toInt64(lv) | toInt64(rv))
	case OpXor:
		o.c.ConstantsFolded++
		return o.litInt(toInt64(lv) ^ toInt64(rv))

	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		a, b := lv.AsFloat(), rv.AsFloat()
		var r bool
		switch n.BinOp {
		case OpEq:
			r = a == b
		case OpNe:
			r = a != b
		case OpLt:
			r = a < b
		case OpLe:
			r = a <= b
		case OpGt:
			r = a > b
		case OpGe:
			r = a >= b
		}
		o.c.ConstantsFolded++
		if r {
			return o.litFloat(1.0)
		}
		return o.litFloat(0.0)
	}
	_ = isIntOp
	return nil
}

// reducePower implements rule 4. x^0 and x^1 are deliberately left to
// algebraicIdentity (rule 5).
func (o *optimizer) reducePower(n *Node, base, exp *Node) *Node {
	ev, ok := isConstNumber(exp)
	if !ok || ev.Kind != ValInteger {
		return nil
	}
	switch ev.I {
	case 2:
		o.c.PowerReduced++
		return o.mul(n.Pos, base, base)
	case 3:
		o.c.PowerReduced++
		return o.mul(n.Pos, o.mul(n.Pos, base, base), base)
	case -1:
		o.c.PowerReduced++
		return o.div(n.Pos, o.litFloat(1.0), base)
	}
	return nil
}

func (o *optimizer) mul(pos Pos, a, b *Node) *Node {
	n := o.newNode(KindBinary)
	n.Pos = pos
	n.BinOp = OpMul
	n.Left, n.Right = a, b
	return n
}

func (o *optimizer) div(pos Pos, a, b *Node) *Node {
	n := o.newNode(KindBinary)
	n.Pos = pos
	n.BinOp = OpDiv
	n.Left, n.Right = a, b
	return n
}

// algebraicIdentity implements rule 5.
func (o *optimizer) algebraicIdentity(n *Node, left, right *Node) *Node {
	lv, lok := isConstNumber(left)
	rv, rok := isConstNumber(right)

	switch n.BinOp {
	case OpAdd:
		if rok && rv.AsFloat() == 0 {
			o.c.AlgebraicIdentities++
			return left
		}
		if lok && lv.AsFloat() == 0 {
			o.c.AlgebraicIdentities++
			return right
		}
	case OpSub:
		if rok && rv.AsFloat() == 0 {
			o.c.AlgebraicIdentities++
			return left
		}
	case OpMul:
		if rok && rv.AsFloat() == 0 {
			o.c.AlgebraicIdentities++
			return o.litInt(0)
		}
		if lok && lv.AsFloat() == 0 {
			o.c.AlgebraicIdentities++
			return o.litInt(0)
		}
		if rok && rv.AsFloat() == 1 {
			o.c.AlgebraicIdentities++
			return left
		}
		if lok && lv.AsFloat() == 1 {
			o.c.AlgebraicIdentities++
			return right
		}
		if rok && rv.AsFloat() == -1 {
			o.c.AlgebraicIdentities++
			return o.negate(n.Pos, left)
		}
		if lok && lv.AsFloat() == -1 {
			o.c.AlgebraicIdentities++
			return o.negate(n.Pos, right)
		}
	case OpDiv:
		if rok && rv.AsFloat() == 1 {
			o.c.AlgebraicIdentities++
			return left
		}
	case OpPow:
		if rok && rv.AsFloat() == 0 {
			o.c.AlgebraicIdentities++
			return o.litInt(1)
		}
		if rok && rv.AsFloat() == 1 {
			o.c.AlgebraicIdentities++
			return left
		}
	}
	return nil
}

func (o *optimizer) negate(pos Pos, x *Node) *Node {
	if v, ok := isConstNumber(x); ok {
		if v.Kind == ValInteger {
			return o.litInt(-v.I)
		}
		return o.litFloat(-v.F)
	}
	n := o.newNode(KindUnary)
	n.Pos = pos
	n.UnOp = OpNeg
	n.Operand = x
	return n
}

// divToMul implements rule 7: x / C -> x * (1/C) iff C != 0, |C| != 1,
// and the IEEE reciprocal is exact.
func (o *optimizer) divToMul(n *Node, left, right *Node) *Node {
	rv, ok := isConstNumber(right)
	if !ok {
		return nil
	}
	c := rv.AsFloat()
	if c == 0 || c == 1 || c == -1 {
		return nil
	}
	// Only a power of two has an exactly representable reciprocal; a
	// round-trip product alone is not enough ((1/3)*3 rounds to 1.0).
	if frac, _ := math.Frexp(c); frac != 0.5 && frac != -0.5 {
		return nil
	}
	recip := 1.0 / c
	if recip*c != 1.0 {
		return nil
	}
	o.c.DivToMul++
	return o.mul(n.Pos, left, o.litFloat(recip))
}

// modToAnd implements rule 8: x MOD C -> x AND (C-1) iff C is a
// positive power of two.
func (o *optimizer) modToAnd(n *Node, left, right *Node) *Node {
	rv, ok := isConstNumber(right)
	if !ok || rv.Kind != ValInteger || rv.I <= 0 {
		return nil
	}
	c := rv.I
	if c&(c-1) != 0 {
		return nil // not a power of two
	}
	o.c.ModToAnd++
	out := o.newNode(KindBinary)
	out.Pos = n.Pos
	out.BinOp = OpAnd
	out.Left = left
	out.Right = o.litInt(c - 1)
	return out
}

// booleanIdentity implements rule 9.
func (o *optimizer) booleanIdentity(n *Node, left, right *Node) *Node {
	lv, lok := isConstNumber(left)
	rv, rok := isConstNumber(right)

	switch n.BinOp {
	case OpAnd:
		if (rok && toInt64(rv) == 0) || (lok && toInt64(lv) == 0) {
			o.c.BooleanIdentities++
			return o.litInt(0)
		}
		if rok && toInt64(rv) == -1 {
			o.c.BooleanIdentities++
			return left
		}
		if lok && toInt64(lv) == -1 {
			o.c.BooleanIdentities++
			return right
		}
	case OpOr:
		if rok && toInt64(rv) == 0 {
			o.c.BooleanIdentities++
			return left
		}
		if lok && toInt64(lv) == 0 {
			o.c.BooleanIdentities++
			return right
		}
		if (rok && toInt64(rv) == -1) || (lok && toInt64(lv) == -1) {
			o.c.BooleanIdentities++
			return o.litInt(-1)
		}
	}
	return nil
}

// optimizeCondExpr implements rule 12 (IIF simplification).
func (o *optimizer) optimizeCondExpr(n *Node) *Node {
	cond := o.optimizeExpr(n.Cond)
	then := o.optimizeExpr(n.Then)
	els := o.optimizeExpr(n.Else)

	if v, ok := isConstNumber(cond); ok {
		o.c.CondExprSimplified++
		if toInt64(v) != 0 {
			return then
		}
		return els
	}

	out := o.newNode(KindCondExpr)
	out.Pos = n.Pos
	out.Cond, out.Then, out.Else = cond, then, els
	return out
}

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

import "testing"

func numLit(i int64) *Node { return &Node{Kind: KindNumberLit, Value: IntValue(i)} }
func fltLit(f float64) *Node { return &Node{Kind: KindNumberLit, Value: FloatValue(f)} }
func binExpr(op BinOp, l, r *Node) *Node { return &Node{Kind: KindBinary, BinOp: op, Left: l, Right: r} }
func varExpr(name string) *Node { return &Node{Kind: KindVariable, Name: name} }

func optimizeExprOnly(t *testing.T, expr *Node, syms *SymbolTable) (*Node, *Counters) {
	t.Helper()
	prog := &Program{Stmts: []*Node{{Kind: KindExprStmt, RHS: expr}}}
	out, _, c, err := Optimize(prog, syms, nil)
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	return out.Stmts[0].RHS, c
}

// Scenario 1: Constant folding. (2 + 3) * 4 -> 20, constants_folded == 2.
func TestScenario1ConstantFolding(t *testing.T) {
	expr := binExpr(OpMul, binExpr(OpAdd, numLit(2), numLit(3)), numLit(4))
	out, c := optimizeExprOnly(t, expr, nil)
	if out.Kind != KindNumberLit || out.Value.I != 20 {
		t.Fatalf("got %+v, want literal 20", out)
	}
	if c.ConstantsFolded != 2 {
		t.Fatalf("constants_folded = %d, want 2", c.ConstantsFolded)
	}
}

// Scenario 2: CONST propagation + folding compose. OFFSET=10, OFFSET+5 -> 15.
func TestScenario2ConstPropagationAndFolding(t *testing.T) {
	syms := NewSymbolTable()
	syms.Set("OFFSET", IntValue(10))
	expr := binExpr(OpAdd, varExpr("OFFSET"), numLit(5))
	out, c := optimizeExprOnly(t, expr, syms)
	if out.Kind != KindNumberLit || out.Value.I != 15 {
		t.Fatalf("got %+v, want literal 15", out)
	}
	if c.ConstantsPropagated != 1 || c.ConstantsFolded != 1 {
		t.Fatalf("propagated=%d folded=%d, want 1,1", c.ConstantsPropagated, c.ConstantsFolded)
	}
}

// Scenario 3: Division reciprocal rewrite.
func TestScenario3DivToMul(t *testing.T) {
	expr := binExpr(OpDiv, varExpr("X"), fltLit(4.0))
	out, c := optimizeExprOnly(t, expr, nil)
	if out.Kind != KindBinary || out.BinOp != OpMul {
		t.Fatalf("got %+v, want x*0.25", out)
	}
	if out.Right.Value.F != 0.25 {
		t.Fatalf("reciprocal = %v, want 0.25", out.Right.Value.F)
	}
	if c.DivToMul != 1 {
		t.Fatalf("div_to_mul = %d, want 1", c.DivToMul)
	}

	expr2 := binExpr(OpDiv, varExpr("X"), fltLit(3.0))
	out2, c2 := optimizeExprOnly(t, expr2, nil)
	if out2.Kind != KindBinary || out2.BinOp != OpDiv {
		t.Fatalf("inexact reciprocal should not rewrite: got %+v", out2)
	}
	if c2.DivToMul != 0 {
		t.Fatalf("div_to_mul = %d, want 0 for inexact reciprocal", c2.DivToMul)
	}
}

// Scenario 4: MOD to AND.
func TestScenario4ModToAnd(t *testing.T) {
	expr := binExpr(OpMod, varExpr("X"), numLit(8))
	out, c := optimizeExprOnly(t, expr, nil)
	if out.Kind != KindBinary || out.BinOp != OpAnd || out.Right.Value.I != 7 {
		t.Fatalf("got %+v, want x AND 7", out)
	}
	if c.ModToAnd != 1 {
		t.Fatalf("mod_to_and = %d, want 1", c.ModToAnd)
	}

	expr2 := binExpr(OpMod, varExpr("X"), numLit(7))
	out2, c2 := optimizeExprOnly(t, expr2, nil)
	if out2.Kind != KindBinary || out2.BinOp != OpMod {
		t.Fatalf("7 is not a power of two, should stay MOD: got %+v", out2)
	}
	if c2.ModToAnd != 0 {
		t.Fatalf("mod_to_and = %d, want 0", c2.ModToAnd)
	}
}

// Scenario 5: dead WHILE elimination.
func TestScenario5DeadWhileElimination(t *testing.T) {
	loop := &Node{Kind: KindWhile, LoopCond: numLit(0), LoopBody: &Node{Kind: KindBlock}}
	prog := &Program{Stmts: []*Node{loop}}
	out, _, c, err := Optimize(prog, nil, nil)
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if out.Stmts[0].Kind != KindRemark {
		t.Fatalf("got %+v, want remark (no-op)", out.Stmts[0])
	}
	if c.DeadLoops != 1 {
		t.Fatalf("dead_loops = %d, want 1", c.DeadLoops)
	}

	loopTrue := &Node{Kind: KindWhile, LoopCond: numLit(1), LoopBody: &Node{Kind: KindBlock}}
	prog2 := &Program{Stmts: []*Node{loopTrue}}
	out2, _, c2, _ := Optimize(prog2, nil, nil)
	if out2.Stmts[0].Kind != KindWhile {
		t.Fatalf("WHILE 1 should not be eliminated: got %+v", out2.Stmts[0])
	}
	if c2.DeadLoops != 0 {
		t.Fatalf("dead_loops = %d, want 0 for WHILE 1", c2.DeadLoops)
	}
}

func TestIdempotence(t *testing.T) {
	expr := binExpr(OpMul, binExpr(OpAdd, numLit(2), numLit(3)), varExpr("X"))
	prog := &Program{Stmts: []*Node{{Kind: KindExprStmt, RHS: expr}}}
	out1, _, _, _ := Optimize(prog, nil, nil)
	out2, _, _, _ := Optimize(out1, nil, nil)
	if out1.Stmts[0].RHS.Kind != out2.Stmts[0].RHS.Kind {
		t.Fatalf("second pass changed node kind: %v vs %v", out1.Stmts[0].RHS.Kind, out2.Stmts[0].RHS.Kind)
	}
}

func TestStringConcatFolding(t *testing.T) {
	expr := binExpr(OpAdd, &Node{Kind: KindStringLit, Value: StringValue("foo")}, &Node{Kind: KindStringLit, Value: StringValue("bar")})
	out, c := optimizeExprOnly(t, expr, nil)
	if out.Kind != KindStringLit || out.Value.S != "foobar" {
		t.Fatalf("got %+v, want \"foobar\"", out)
	}
	if c.StringsFolded != 1 {
		t.Fatalf("strings_folded = %d, want 1", c.StringsFolded)
	}
}

func TestPowerStrengthReduction(t *testing.T) {
	expr := binExpr(OpPow, varExpr("X"), numLit(2))
	out, c := optimizeExprOnly(t, expr, nil)
	if out.Kind != KindBinary || out.BinOp != OpMul {
		t.Fatalf("got %+v, want x*x", out)
	}
	if c.PowerReduced != 1 {
		t.Fatalf("power_reduced = %d, want 1", c.PowerReduced)
	}
}

func TestForStepDirectionTagging(t *testing.T) {
	forStmt := &Node{
		Kind: KindFor, ForVar: "I",
		ForFrom: numLit(1), ForTo: numLit(10), ForStep: numLit(-1),
		ForBody: &Node{Kind: KindBlock},
	}
	prog := &Program{Stmts: []*Node{forStmt}}
	_, steps, c, _ := Optimize(prog, nil, nil)
	dir, ok := steps.Get("I")
	if !ok || dir != StepNegative {
		t.Fatalf("step direction = %v, %v; want StepNegative, true", dir, ok)
	}
	if c.ForStepsTagged != 1 {
		t.Fatalf("for_steps_tagged = %d, want 1", c.ForStepsTagged)
	}
}

func TestBuiltinFolding(t *testing.T) {
	cases := []struct {
		name string
		call *Node
		want *Node
	}{
		{"LEN", &Node{Kind: KindCall, Callee: "LEN", Args: []*Node{{Kind: KindStringLit, Value: StringValue("hello")}}}, numLit(5)},
		{"MID$", &Node{Kind: KindCall, Callee: "MID$", Args: []*Node{{Kind: KindStringLit, Value: StringValue("hello")}, numLit(2), numLit(3)}}, &Node{Kind: KindStringLit, Value: StringValue("ell")}},
		{"INSTR not found", &Node{Kind: KindCall, Callee: "INSTR", Args: []*Node{{Kind: KindStringLit, Value: StringValue("abc")}, {Kind: KindStringLit, Value: StringValue("z")}}}, numLit(0)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			out, _ := optimizeExprOnly(t, c.call, nil)
			if out.Kind != c.want.Kind {
				t.Fatalf("kind = %v, want %v", out.Kind, c.want.Kind)
			}
			if out.Kind == KindNumberLit && out.Value.I != c.want.Value.I {
				t.Fatalf("value = %d, want %d", out.Value.I, c.want.Value.I)
			}
			if out.Kind == KindStringLit && out.Value.S != c.want.Value.S {
				t.Fatalf("value = %q, want %q", out.Value.S, c.want.Value.S)
			}
		})
	}
}

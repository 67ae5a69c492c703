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

// Counters tallies every transformation the optimizer performs, one
// dedicated counter per rule, used only for reporting.
type Counters struct {
	ConstantsFolded int
	ConstantsPropagated int
	StringsFolded int
	PowerReduced int
	AlgebraicIdentities int
	DoubleNegations int
	DivToMul int
	ModToAnd int
	BooleanIdentities int
	DeadBranches int
	DeadLoops int
	CondExprSimplified int
	ForStepsTagged int
	BuiltinsFolded int
}

// optimizer carries the state threaded through one optimization pass.
// It owns no AST nodes other than the ones it allocates; everything
// else remains owned by the caller.
type optimizer struct {
	arena Arena
	syms *SymbolTable
	steps *StepDirectionMap
	c Counters
}

// Optimize performs one recursive, bottom-up walk over program,
// rewriting expressions and statements per the 14 named transformations.
// The returned StepDirectionMap is populated as a side-effect of rule
// 13. Optimize(Optimize(p)) == Optimize(p) (idempotence): every rule
// only ever moves a subtree towards a fixed point it already recognizes
// as "nothing further to do" on a second pass.
//
// The only fallible operation is allocation; since this implementation
// targets Go (whose allocator does not return errors to callers), the
// error return exists to satisfy the contract and is always nil here —
// a future arena with a fallible Reserve could populate it without
// changing this signature.
func Optimize(program *Program, syms *SymbolTable, arena Arena) (*Program, *StepDirectionMap, *Counters, error) {
	if arena == nil {
		arena = HeapArena
	}
	if syms == nil {
		syms = NewSymbolTable()
	}
	o := &optimizer{arena: arena, syms: syms, steps: NewStepDirectionMap()}
	out := &Program{Stmts: make([]*Node, len(program.Stmts))}
	for i, s := range program.Stmts {
		out.Stmts[i] = o.optimizeStmt(s)
	}
	return out, o.steps, &o.c, nil
}

func (o *optimizer) newNode(kind Kind) *Node {
	n := o.arena.NewNode()
	n.Kind = kind
	return n
}

// optimizeStmt rewrites one statement, recursing into every contained
// expression bottom-up first, then applying statement-level rules
// (dead branch/loop elimination, FOR step tagging).
func (o *optimizer) optimizeStmt(s *Node) *Node {
	if s == nil {
		return nil
	}
	switch s.Kind {
	case KindBlock:
		out := o.newNode(KindBlock)
		out.Pos = s.Pos
		out.Stmts = make([]*Node, len(s.Stmts))
		for i, c := range s.Stmts {
			out.Stmts[i] = o.optimizeStmt(c)
		}
		return out

	case KindExprStmt:
		out := o.newNode(KindExprStmt)
		out.Pos = s.Pos
		out.RHS = o.optimizeExpr(s.RHS)
		return out

	case KindAssign:
		out := o.newNode(KindAssign)
		out.Pos = s.Pos
		out.Target = o.optimizeExpr(s.Target)
		out.RHS = o.optimizeExpr(s.RHS)
		return out

	case KindIf:
		return o.optimizeIf(s)

	case KindWhile:
		return o.optimizeWhile(s)

	case KindDoWhile:
		return o.optimizeDoWhile(s, true)

	case KindDoUntil:
		return o.optimizeDoWhile(s, false)

	case KindFor:
		return o.optimizeFor(s)

	case KindRemark:
		return s

	default:
		// Unknown statement kind: nothing to recurse into; return as-is.
		return s
	}
}

// remark synthesizes a no-op statement, used whenever dead-branch/loop
// elimination removes a statement's only surviving body.
func (o *optimizer) remark(text string) *Node {
	n := o.newNode(KindRemark)
	n.Text = text
	return n
}

func (o *optimizer) trueLiteral() *Node {
	n := o.newNode(KindNumberLit)
	n.Value = IntValue(1)
	return n
}

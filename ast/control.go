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

import "strings"

// optimizeIf implements rule 10 (dead branch elimination). Every
// condition and body is optimized bottom-up first; only then is the
// IF's own shape potentially collapsed.
func (o *optimizer) optimizeIf(s *Node) *Node {
	cond := o.optimizeExpr(s.IfCond)
	then := o.optimizeStmt(s.IfThen)

	var elifs []*ElseIf
	for _, e := range s.IfElifs {
		elifs = append(elifs, &ElseIf{Cond: o.optimizeExpr(e.Cond), Body: o.optimizeStmt(e.Body)})
	}
	var els *Node
	if s.IfElse != nil {
		els = o.optimizeStmt(s.IfElse)
	}

	v, isConst := isConstNumber(cond)
	if !isConst {
		out := o.newNode(KindIf)
		out.Pos = s.Pos
		out.IfCond, out.IfThen, out.IfElifs, out.IfElse = cond, then, elifs, els
		return out
	}

	o.c.DeadBranches++
	if toInt64(v) != 0 {
		// condition true: keep THEN, drop all ELSEIF/ELSE.
		return then
	}

	// condition false.
	if len(elifs) > 0 {
		// promote first ELSEIF to the IF's condition/body, keep the rest.
		first := elifs[0]
		out := o.newNode(KindIf)
		out.Pos = s.Pos
		out.IfCond = first.Cond
		out.IfThen = first.Body
		out.IfElifs = elifs[1:]
		out.IfElse = els
		// Re-run elimination in case the promoted condition is itself
		// constant; this is what keeps the pass idempotent rather than
		// leaving one level of promotable constant behind.
		return o.optimizeIf(out)
	}
	if els != nil {
		// promote ELSE to THEN with a synthetic true condition.
		out := o.newNode(KindIf)
		out.Pos = s.Pos
		out.IfCond = o.trueLiteral()
		out.IfThen = els
		return out
	}
	// neither ELSEIF nor ELSE survives: whole IF becomes a no-op.
	return o.remark("dead if")
}

// optimizeWhile implements rule 11 (dead loop elimination) for
// pre-condition WHILE. WHILE-true is deliberately not eliminated.
func (o *optimizer) optimizeWhile(s *Node) *Node {
	cond := o.optimizeExpr(s.LoopCond)
	body := o.optimizeStmt(s.LoopBody)

	if v, ok := isConstNumber(cond); ok && toInt64(v) == 0 {
		o.c.DeadLoops++
		return o.remark("dead while")
	}

	out := o.newNode(KindWhile)
	out.Pos = s.Pos
	out.LoopCond, out.LoopBody = cond, body
	return out
}

// optimizeDoWhile implements rule 11 for post-condition DO-WHILE/DO-UNTIL.
// isWhile selects DO-WHILE (loops while condition true) vs DO-UNTIL
// (loops until condition true, i.e. while false) semantics for deciding
// which constant value makes the loop dead in the pre-condition
// position: DO-WHILE false, DO-UNTIL true.
func (o *optimizer) optimizeDoWhile(s *Node, isWhile bool) *Node {
	cond := o.optimizeExpr(s.LoopCond)
	body := o.optimizeStmt(s.LoopBody)

	if v, ok := isConstNumber(cond); ok {
		dead := (isWhile && toInt64(v) == 0) || (!isWhile && toInt64(v) != 0)
		if dead {
			o.c.DeadLoops++
			return o.remark("dead do-loop")
		}
	}

	kind := KindDoWhile
	if !isWhile {
		kind = KindDoUntil
	}
	out := o.newNode(kind)
	out.Pos = s.Pos
	out.LoopCond, out.LoopBody = cond, body
	return out
}

// optimizeFor implements rule 13 (FOR step-direction tagging). The loop
// variable, bounds and body are optimized first; the step expression is
// classified and recorded under the upper-cased variable name, which
// overwrites any entry from a prior FOR on the same variable.
func (o *optimizer) optimizeFor(s *Node) *Node {
	out := o.newNode(KindFor)
	out.Pos = s.Pos
	out.ForVar = s.ForVar
	out.ForFrom = o.optimizeExpr(s.ForFrom)
	out.ForTo = o.optimizeExpr(s.ForTo)
	if s.ForStep != nil {
		out.ForStep = o.optimizeExpr(s.ForStep)
	}
	out.ForBody = o.optimizeStmt(s.ForBody)

	dir := classifyStep(out.ForStep)
	o.steps.Set(strings.ToUpper(s.ForVar), dir)
	o.c.ForStepsTagged++
	return out
}

// classifyStep implements the step-expression classification rule:
// absent -> positive (defaults to 1); literal positive/negative/zero;
// unary-minus of literal; otherwise unknown.
func classifyStep(step *Node) StepDirection {
	if step == nil {
		return StepPositive
	}
	v, ok := isConstNumber(step)
	if !ok {
		return StepUnknown
	}
	f := v.AsFloat()
	switch {
	case f > 0:
		return StepPositive
	case f < 0:
		return StepNegative
	default:
		return StepZero
	}
}

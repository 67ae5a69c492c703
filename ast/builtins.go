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
	"strconv"
	"strings"
)

// optimizeCall recurses into arguments, then attempts rule 14 (pure
// built-in function folding) when every argument folded to a constant.
func (o *optimizer) optimizeCall(n *Node) *Node {
	args := o.optimizeArgs(n.Args)

	if folded := o.foldBuiltin(n.Callee, args); folded != nil {
		o.c.BuiltinsFolded++
		folded.Pos = n.Pos
		return folded
	}

	out := o.newNode(KindCall)
	out.Pos = n.Pos
	out.Callee = n.Callee
	out.Args = args
	return out
}

// foldBuiltin evaluates a pure built-in call when all arguments are
// compile-time constants. Returns nil when
// the function is not one of the recognized pure builtins, the
// argument count/types don't match, or the specific fold is guarded off
// (undefined on empty input, out-of-range clamp that aborts the fold,
// etc.) — in all those cases the call is left unchanged, per the "when
// in doubt, leave the tree unchanged" failure model.
func (o *optimizer) foldBuiltin(name string, args []*Node) *Node {
	fn := strings.ToUpper(name)
	switch fn {
	case "LEN":
		if s, ok := constStr1(args); ok {
			return o.litInt(int64(len(s)))
		}
	case "ASC":
		if s, ok := constStr1(args); ok && len(s) > 0 {
			return o.litInt(int64(s[0]))
		}
	case "CHR$":
		if v, ok := constInt1(args); ok && v >= 0 && v <= 127 {
			return o.litString(string(rune(v)))
		}
	case "UCASE$":
		if s, ok := constStr1(args); ok {
			return o.litString(strings.ToUpper(s))
		}
	case "LCASE$":
		if s, ok := constStr1(args); ok {
			return o.litString(strings.ToLower(s))
		}
	case "TRIM$":
		if s, ok := constStr1(args); ok {
			return o.litString(strings.Trim(s, " "))
		}
	case "LTRIM$":
		if s, ok := constStr1(args); ok {
			return o.litString(strings.TrimLeft(s, " "))
		}
	case "RTRIM$":
		if s, ok := constStr1(args); ok {
			return o.litString(strings.TrimRight(s, " "))
		}
	case "VAL":
		if s, ok := constStr1(args); ok {
			if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
				return o.litFloat(f)
			}
		}
	case "STR$":
		if len(args) == 1 {
			if v, ok := isConstNumber(args[0]); ok && v.Kind == ValInteger {
				return o.litString(strconv.FormatInt(v.I, 10))
			}
			if v, ok := isConstNumber(args[0]); ok {
				if v.F == float64(int64(v.F)) {
					return o.litString(strconv.FormatInt(int64(v.F), 10))
				}
			}
		}
	case "SPACE$":
		if v, ok := constInt1(args); ok && v >= 0 && v <= 256 {
			return o.litString(strings.Repeat(" ", int(v)))
		}
	case "LEFT$":
		if len(args) == 2 {
			if s, ok := constStr0(args); ok {
				if n, ok := constInt(args[1]); ok && n >= 0 {
					if int(n) > len(s) {
						n = int64(len(s))
					}
					return o.litString(s[:n])
				}
			}
		}
	case "RIGHT$":
		if len(args) == 2 {
			if s, ok := constStr0(args); ok {
				if n, ok := constInt(args[1]); ok && n >= 0 {
					if int(n) > len(s) {
						n = int64(len(s))
					}
					return o.litString(s[len(s)-int(n):])
				}
			}
		}
	case "INSTR":
		if len(args) == 2 {
			if hay, ok := constStr0(args); ok {
				if needle, ok := constStr(args[1]); ok {
					idx := strings.Index(hay, needle)
					return o.litInt(int64(idx + 1)) // 1-based; 0 when not found
				}
			}
		}
	case "STRING$":
		if len(args) == 2 {
			n, nok := constInt(args[0])
			if !nok || n < 0 || n > 256 {
				break
			}
			fillArg := args[1]
			if code, ok := isConstNumber(fillArg); ok {
				c := toInt64(code)
				if c < 0 || c > 255 {
					break
				}
				return o.litString(strings.Repeat(string(rune(c)), int(n)))
			}
			if s, ok := constStr(fillArg); ok && len(s) > 0 {
				return o.litString(strings.Repeat(string(s[0]), int(n)))
			}
		}
	case "MID$":
		if len(args) == 2 || len(args) == 3 {
			s, sok := constStr0(args)
			start, stok := constInt(args[1])
			if sok && stok && start >= 1 {
				if int(start) > len(s) {
					return o.litString("")
				}
				rest := s[start-1:]
				if len(args) == 3 {
					length, lok := constInt(args[2])
					if !lok || length < 0 {
						break
					}
					if int(length) > len(rest) {
						length = int64(len(rest))
					}
					return o.litString(rest[:length])
				}
				return o.litString(rest)
			}
		}
	}
	return nil
}

func constStr(n *Node) (string, bool) { return isConstString(n) }

func constStr0(args []*Node) (string, bool) {
	if len(args) == 0 {
		return "", false
	}
	return isConstString(args[0])
}

func constStr1(args []*Node) (string, bool) {
	if len(args) != 1 {
		return "", false
	}
	return isConstString(args[0])
}

func constInt(n *Node) (int64, bool) {
	v, ok := isConstNumber(n)
	if !ok {
		return 0, false
	}
	return toInt64(v), true
}

func constInt1(args []*Node) (int64, bool) {
	if len(args) != 1 {
		return 0, false
	}
	return constInt(args[0])
}

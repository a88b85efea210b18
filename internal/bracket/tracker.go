// Package bracket tracks nested parenthesis and angle-bracket state over a
// token stream.
package bracket

import "errors"

// Errors returned by Tracker when a closing bracket has no matching opener.
var (
	ErrParenMismatch = errors.New("Parenthesis mismatch")
	ErrAngleMismatch = errors.New("Triangle bracket mismatch")
)

// Tracker holds the stack of currently open brackets.
// The zero value is an empty tracker ready for use.
type Tracker struct {
	stack []byte

	parens int
	angles int

	// Incremented only when a bracket opens on an empty stack.
	parenBlocks int
	angleBlocks int
}

// Push opens a bracket. Characters other than '(' and '<' are ignored.
func (t *Tracker) Push(c byte) {
	switch c {
	case '(':
		t.parens++
		if len(t.stack) == 0 {
			t.parenBlocks++
		}
	case '<':
		t.angles++
		if len(t.stack) == 0 {
			t.angleBlocks++
		}
	default:
		return
	}
	t.stack = append(t.stack, c)
}

// Pop closes a bracket. The top of the stack must hold the matching opener.
// Characters other than ')' and '>' are ignored.
func (t *Tracker) Pop(c byte) error {
	var open byte
	var mismatch error
	switch c {
	case ')':
		open, mismatch = '(', ErrParenMismatch
	case '>':
		open, mismatch = '<', ErrAngleMismatch
	default:
		return nil
	}

	n := len(t.stack)
	if n == 0 || t.stack[n-1] != open {
		return mismatch
	}
	t.stack = t.stack[:n-1]

	if open == '(' {
		t.parens--
	} else {
		t.angles--
	}
	return nil
}

// FeedByte applies c to the tracker if it is a bracket character.
func (t *Tracker) FeedByte(c byte) error {
	switch c {
	case '(', '<':
		t.Push(c)
		return nil
	case ')', '>':
		return t.Pop(c)
	}
	return nil
}

// Feed applies a token to the tracker. Only single-character bracket tokens
// change state, so "operator<" or "->" pass through untouched.
func (t *Tracker) Feed(tok string) error {
	if len(tok) != 1 {
		return nil
	}
	return t.FeedByte(tok[0])
}

// Depth returns the number of open brackets of any kind.
func (t *Tracker) Depth() int { return len(t.stack) }

// ParenDepth returns the number of open parentheses anywhere in the stack.
func (t *Tracker) ParenDepth() int { return t.parens }

// AngleDepth returns the number of open angle brackets anywhere in the stack.
func (t *Tracker) AngleDepth() int { return t.angles }

// AtTopLevelParen reports whether exactly one bracket is open and it is a
// parenthesis.
func (t *Tracker) AtTopLevelParen() bool {
	return len(t.stack) == 1 && t.stack[0] == '('
}

// AtTopLevelAngle reports whether exactly one bracket is open and it is an
// angle bracket.
func (t *Tracker) AtTopLevelAngle() bool {
	return len(t.stack) == 1 && t.stack[0] == '<'
}

// ParenBlocks returns how many top-level parenthesis blocks have been entered.
func (t *Tracker) ParenBlocks() int { return t.parenBlocks }

// AngleBlocks returns how many top-level angle-bracket blocks have been entered.
func (t *Tracker) AngleBlocks() int { return t.angleBlocks }

package shortener

import (
	"context"

	"github.com/jaevor/go-nanoid"
)

// codeAlphabet is the base-62 alphabet codes are drawn from.
const codeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// CodeGenerator draws a random fixed-length code. Each draw is independent
// and uniformly distributed over the alphabet.
type CodeGenerator func() Code

// NewCodeGenerator creates a generator producing codes of the given length.
func NewCodeGenerator(length int) (CodeGenerator, error) {
	gen, err := nanoid.CustomASCII(codeAlphabet, length)
	if err != nil {
		return nil, err
	}

	return func() Code { return Code(gen()) }, nil
}

// ExistsFunc reports whether a code is already in use.
type ExistsFunc func(ctx context.Context, code Code) (bool, error)

// GenerateUniqueCode draws fresh codes until one not currently in use is
// found. The check is advisory: the caller must still treat an insert-time
// conflict as a signal to regenerate, since two concurrent creators may draw
// the same code between check and insert.
func GenerateUniqueCode(ctx context.Context, generate CodeGenerator, exists ExistsFunc) (Code, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		code := generate()

		inUse, err := exists(ctx, code)
		if err != nil {
			return "", err
		}

		if !inUse {
			return code, nil
		}
	}
}

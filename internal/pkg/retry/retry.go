// Package retry repete uma operação um número limitado de vezes, com espera
// fixa entre as tentativas, e para antes se o contexto acabar.
package retry

import (
	"context"
	"errors"
	"time"
)

var ErrNoAttempts = errors.New("retry: attempts must be >= 1")

// Do chama fn até attempts vezes, esperando delay entre falhas. onRetry
// (opcional) recebe o número (a partir de 1) da tentativa que falhou e que
// ainda será repetida. Se todas falharem, devolve o último erro.
func Do(ctx context.Context, attempts int, delay time.Duration, fn func(context.Context) error, onRetry func(attempt int, err error)) error {
	if attempts < 1 {
		return ErrNoAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		if onRetry != nil {
			onRetry(attempt, lastErr)
		}

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return lastErr
		}
	}
	return lastErr
}

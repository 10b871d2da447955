package signup

import (
	"context"
	"sync"

	"github.com/atinyakov/signupform/internal/rules"
	"go.uber.org/zap"
)

// TakenMessage is shown under the id number when the lookup finds it.
const TakenMessage = rules.TakenMessage

// IDChecker reports whether an id number is already registered.
type IDChecker interface {
	IDTaken(ctx context.Context, idNumber string) (bool, error)
}

// Verdict is the outcome of one validation cycle.
type Verdict struct {
	// Generation is the cycle's token. Later cycles carry larger tokens.
	Generation uint64
	Check
	// SubmitEnabled is the state of the submit control after the cycle.
	SubmitEnabled bool
	// Err is the lookup error, if the uniqueness lookup failed.
	Err error
}

// Renderer applies verdicts to the user interface. Render is called with the
// validator's lock held and must not call back into the Validator.
type Renderer interface {
	Render(Verdict)
}

// Validator runs validation cycles on key releases. Every cycle gets a new
// generation token and cancels the previous cycle's lookup; a verdict reaches
// the Renderer only while its generation is the latest issued, so the most
// recent key release always decides the submit state.
type Validator struct {
	rules    *rules.Set
	checker  IDChecker
	renderer Renderer
	logger   *zap.Logger

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

// NewValidator creates a Validator evaluating set and looking up id numbers
// through checker.
func NewValidator(set *rules.Set, checker IDChecker, renderer Renderer, logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{rules: set, checker: checker, renderer: renderer, logger: logger}
}

// KeyUp starts a validation cycle for a key release in trigger. It returns the
// synchronous check, whose Form carries the normalized field values. When the
// id number has a valid length the verdict is rendered asynchronously after
// the uniqueness lookup; otherwise it is rendered before KeyUp returns.
func (v *Validator) KeyUp(ctx context.Context, form Form, trigger Field) Check {
	check := Evaluate(v.rules, form, trigger)

	v.mu.Lock()
	v.generation++
	gen := v.generation
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}

	if !check.IDLengthValid {
		v.renderLocked(Verdict{Generation: gen, Check: check})
		v.mu.Unlock()
		return check
	}

	lookupCtx, cancel := context.WithCancel(ctx)
	v.cancel = cancel
	v.wg.Add(1)
	v.mu.Unlock()

	go func() {
		defer v.wg.Done()
		defer cancel()

		taken, err := v.checker.IDTaken(lookupCtx, check.Form.IDNumber)
		verdict := Verdict{Generation: gen, Check: check}
		switch {
		case err != nil:
			// A lookup superseded by a newer cycle is dropped in deliver; one
			// cancelled by the caller still disables submit.
			verdict.Err = err
		case taken:
			if trigger == IDNumber {
				verdict.Message = TakenMessage
			}
		default:
			verdict.SubmitEnabled = check.Filled && check.PasswordValid
		}
		v.deliver(verdict)
	}()
	return check
}

// Generation returns the token of the most recently started cycle.
func (v *Validator) Generation() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.generation
}

// Wait blocks until every started lookup has finished.
func (v *Validator) Wait() {
	v.wg.Wait()
}

func (v *Validator) deliver(verdict Verdict) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if verdict.Generation != v.generation {
		v.logger.Debug("discarding stale verdict",
			zap.Uint64("generation", verdict.Generation),
			zap.Uint64("current", v.generation))
		return
	}
	if verdict.Err != nil {
		v.logger.Warn("id number lookup failed", zap.Error(verdict.Err))
	}
	v.renderLocked(verdict)
}

func (v *Validator) renderLocked(verdict Verdict) {
	if v.renderer != nil {
		v.renderer.Render(verdict)
	}
}

// Package jsvalue evaluates JavaScript string literals embedded in pages.
//
// Mobile search pages assign ytInitialData as a quoted, hex-escaped string
// instead of an object literal. The literal is evaluated by a real JS engine
// so every escape form JavaScript accepts is honored.
package jsvalue

import (
	"errors"
	"fmt"
	"time"

	"github.com/dop251/goja"
	"github.com/robertkrimen/otto"

	"github.com/source-eva/yteva/internal/logger"
)

// evalTimeout bounds a single evaluation.
const evalTimeout = 2 * time.Second

var errNotString = errors.New("expression did not evaluate to a string")

// Engine evaluates a JavaScript expression that must yield a string.
type Engine interface {
	Name() string
	EvalString(expr string) (string, error)
}

// GojaEngine evaluates with github.com/dop251/goja.
type GojaEngine struct{}

func (GojaEngine) Name() string { return "goja" }

func (GojaEngine) EvalString(expr string) (string, error) {
	vm := goja.New()
	timer := time.AfterFunc(evalTimeout, func() { vm.Interrupt("timeout") })
	defer timer.Stop()

	v, err := vm.RunString("(" + expr + ")")
	if err != nil {
		return "", err
	}
	s, ok := v.Export().(string)
	if !ok {
		return "", errNotString
	}
	return s, nil
}

// OttoEngine evaluates with github.com/robertkrimen/otto.
type OttoEngine struct{}

func (OttoEngine) Name() string { return "otto" }

func (OttoEngine) EvalString(expr string) (string, error) {
	vm := otto.New()
	v, err := vm.Run("(" + expr + ")")
	if err != nil {
		return "", err
	}
	if !v.IsString() {
		return "", errNotString
	}
	return v.ToString()
}

// DefaultEngines is goja first, otto as fallback.
var DefaultEngines = []Engine{GojaEngine{}, OttoEngine{}}

// DecodeStringLiteral returns the value of a single- or double-quoted JS
// string literal using DefaultEngines.
func DecodeStringLiteral(literal string) (string, error) {
	return DecodeWith(DefaultEngines, literal)
}

// DecodeWith tries each engine in order and returns the first success.
func DecodeWith(engines []Engine, literal string) (string, error) {
	if len(literal) < 2 {
		return "", fmt.Errorf("not a string literal: %q", literal)
	}
	q := literal[0]
	if (q != '\'' && q != '"') || literal[len(literal)-1] != q {
		return "", fmt.Errorf("not a string literal: %.20q", literal)
	}

	log := logger.WithComponent(logger.ComponentJSValue)
	var errs []error
	for _, e := range engines {
		s, err := e.EvalString(literal)
		if err == nil {
			return s, nil
		}
		log.Debug("engine failed", map[string]interface{}{"engine": e.Name(), "error": err.Error()})
		errs = append(errs, fmt.Errorf("%s: %w", e.Name(), err))
	}
	if len(errs) == 0 {
		return "", errors.New("no javascript engine configured")
	}
	return "", errors.Join(errs...)
}

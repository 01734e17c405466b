package providers

import (
	"auditstat/internal/structures"
	"fmt"
	"github.com/gookit/validate"
)

type CnfValidatorInterface interface {
	Validate() error
}

type CnfValidator struct {
	conf *structures.Config
}

func (cv *CnfValidator) Validate() error {
	v := validate.Struct(cv.conf)
	if !v.Validate() {
		return fmt.Errorf("invalid config: %w", v.Errors)
	}
	if cv.conf.Engine.LongWindow < cv.conf.Engine.ShortWindow {
		return fmt.Errorf("invalid config: engine.longWindow %s is shorter than engine.shortWindow %s",
			cv.conf.Engine.LongWindow, cv.conf.Engine.ShortWindow)
	}
	return nil
}

func NewCnfValidator(conf *structures.Config) CnfValidatorInterface {
	return &CnfValidator{conf: conf}
}

package extension

import "github.com/jdbcx/jdbcx-core/result"

// BlackholeExtension accepts any body and option set and performs
// nothing, directly modeled on the teacher's DryRunDatabase: a
// wrapper that satisfies the full contract while touching no backend.
// Useful for validating query composition (parsing, variable
// expansion, option merge) end to end without side effects.
type BlackholeExtension struct{}

func NewBlackholeExtension() *BlackholeExtension { return &BlackholeExtension{} }

func (*BlackholeExtension) Execute(ec *Context) (result.Result, error) {
	return result.NewScalarResult(result.StringValue(""), ec.Tracker, ec.Log), nil
}

package extension

import (
	"github.com/jdbcx/jdbcx-core/result"
)

// ErrorPolicy controls what Dispatch does when an extension's Execute
// returns an error (spec.md §4.3: "exec.error: ignore|warn|throw|return").
type ErrorPolicy int

const (
	PolicyThrow ErrorPolicy = iota // default: propagate the error to the caller
	PolicyIgnore
	PolicyWarn
	PolicyReturn
)

const errorPolicyOption = "exec.error"

func parseErrorPolicy(options map[string]string) ErrorPolicy {
	switch options[errorPolicyOption] {
	case "ignore":
		return PolicyIgnore
	case "warn":
		return PolicyWarn
	case "return":
		return PolicyReturn
	default:
		return PolicyThrow
	}
}

// applyErrorPolicy turns a failed Execute into whatever exec.error
// demands: silence it, log and silence it, surface it as the block's
// normal output, or propagate it unchanged.
func applyErrorPolicy(ec *Context, err error) (result.Result, error) {
	switch parseErrorPolicy(ec.Options) {
	case PolicyIgnore:
		return result.NewScalarResult(result.StringValue(""), nil, ec.Log), nil
	case PolicyWarn:
		if ec.Log != nil {
			ec.Log.Warn("extension failed, continuing", "extension", ec.Extension, "error", err)
		}
		return result.NewScalarResult(result.StringValue(ec.Body), nil, ec.Log), nil
	case PolicyReturn:
		return result.NewScalarResult(result.StringValue(err.Error()), nil, ec.Log), nil
	default:
		return nil, err
	}
}

package extension

import (
	"github.com/jdbcx/jdbcx-core/errs"
	"github.com/jdbcx/jdbcx-core/result"
)

// PRQLExtension is a thin pass-through to db: the examples corpus
// carries no PRQL compiler, so (as recorded in DESIGN.md) a prql
// block is treated as already-compiled
// SQL text and simply forwarded to the db extension under the same
// options. A real compiler can be dropped in here later without
// changing the block-level contract.
type PRQLExtension struct {
	registry *Registry
}

func NewPRQLExtension(r *Registry) *PRQLExtension { return &PRQLExtension{registry: r} }

func (p *PRQLExtension) Execute(ec *Context) (result.Result, error) {
	db, ok := p.registry.Lookup("db")
	if !ok {
		return nil, errs.InvalidStateError("db extension not registered")
	}
	return db.Execute(ec)
}

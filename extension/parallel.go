package extension

import (
	"cmp"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/jdbcx/jdbcx-core/internal/util"
)

type orderedOutput[T any] struct {
	order  int
	output T
}

// ConcurrentMap runs f over inputs with bounded fan-out, preserving
// input order in the returned slice. concurrency < 0 disables limits
// (unbounded); concurrency 0 or 1 forces sequential execution. This is
// the primitive behind the query extension's exec.parallelism and any
// other extension that needs to fan out across inputs without holding a
// lock across the backend call — adapted directly from the teacher's
// database.ConcurrentMapFuncWithError.
func ConcurrentMap[Tin any, Tout any](inputs []Tin, concurrency int, f func(Tin) (Tout, error)) ([]Tout, error) {
	eg := errgroup.Group{}
	switch {
	case concurrency == 0:
		eg.SetLimit(1)
	case concurrency > 0:
		eg.SetLimit(concurrency)
	}

	ch := make(chan orderedOutput[Tout], len(inputs))
	for i := range inputs {
		order := i
		in := inputs[i]
		eg.Go(func() error {
			out, err := f(in)
			if err != nil {
				return err
			}
			ch <- orderedOutput[Tout]{order: order, output: out}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	close(ch)

	tmp := make([]orderedOutput[Tout], 0, len(inputs))
	for t := range ch {
		tmp = append(tmp, t)
	}
	slices.SortFunc(tmp, func(a, b orderedOutput[Tout]) int {
		return cmp.Compare(a.order, b.order)
	})

	return util.TransformSlice(tmp, func(t orderedOutput[Tout]) Tout { return t.output }), nil
}

package service

import "context"

type operatorKey struct{}

// WithOperator tags ctx with the authenticated operator so audit entries
// written on its behalf record who acted.
func WithOperator(ctx context.Context, operatorID int) context.Context {
	return context.WithValue(ctx, operatorKey{}, operatorID)
}

// OperatorFrom returns the operator carried by ctx. Background work such as
// scheduled syncs has none.
func OperatorFrom(ctx context.Context) (int, bool) {
	id, ok := ctx.Value(operatorKey{}).(int)
	return id, ok && id > 0
}

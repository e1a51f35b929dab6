package ctxutil

import "context"

type requestDataKey struct{}

// RequestData carries the authenticated agent for the current request.
type RequestData struct {
	Identity  string
	WorkerSID string
	Roles     []string
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	if ctx == nil {
		return nil
	}
	if rd, ok := ctx.Value(requestDataKey{}).(*RequestData); ok {
		return rd
	}
	return nil
}

package usecases

import (
	"context"
	"net/url"

	"stream-resolver/internal/domain"
	"stream-resolver/pkg/log"
)

// ResolveUsage is the usage hint returned with a missing parameter.
const ResolveUsage = "/resolve?service=netflix&id=70270776"

// TokenSource defines the interface for acquiring an upstream credential.
type TokenSource interface {
	Name() string
	Acquire(ctx context.Context) (domain.AuthToken, error)
}

// ResolveLinkUseCase turns a service and id into a playable proxy URL.
type ResolveLinkUseCase struct {
	catalog   *ServiceCatalog
	tokens    TokenSource
	proxyBase string
}

// NewResolveLinkUseCase creates a new ResolveLinkUseCase.
func NewResolveLinkUseCase(catalog *ServiceCatalog, tokens TokenSource, proxyBase string) *ResolveLinkUseCase {
	return &ResolveLinkUseCase{
		catalog:   catalog,
		tokens:    tokens,
		proxyBase: proxyBase,
	}
}

// Execute validates the request, acquires a fresh token and composes the
// proxy URL. Nothing is cached between calls.
func (uc *ResolveLinkUseCase) Execute(ctx context.Context, req domain.ResolutionRequest) (link string, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.GlobalErrorCtx(ctx, "resolve panicked", "panic", r)
			link, err = "", domain.Recovered("resolve", r)
		}
	}()

	if req.Service == "" || req.ID == "" {
		return "", &domain.MissingParameterError{
			Params: []string{"service", "id"},
			Usage:  ResolveUsage,
		}
	}

	service, err := domain.ParseService(req.Service)
	if err != nil {
		return "", err
	}

	target, err := uc.catalog.Target(service, req.ID)
	if err != nil {
		return "", err
	}

	token, err := uc.tokens.Acquire(ctx)
	if err != nil {
		log.GlobalWarnCtx(ctx, "token acquisition failed", "source", uc.tokens.Name(), "error", err)
		return "", &domain.TokenAcquisitionError{Source: uc.tokens.Name(), Err: err}
	}
	if token.IsZero() {
		return "", &domain.TokenAcquisitionError{Source: uc.tokens.Name(), Err: domain.ErrTokenUnavailable}
	}

	referer := req.Referer
	if referer == "" {
		referer = target.DefaultReferer
	}

	link, err = ComposeProxyURL(uc.proxyBase, target.URL, token, referer)
	if err != nil {
		return "", err
	}

	log.GlobalDebugCtx(ctx, "link resolved", "service", string(service), "id", req.ID)
	return link, nil
}

// BuildResolveLink returns the shareable resolve link for a title, with
// service and id query-encoded in that order.
func BuildResolveLink(base, service, id string) string {
	return base + querySeparator(base) +
		"service=" + url.QueryEscape(service) +
		"&id=" + url.QueryEscape(id)
}

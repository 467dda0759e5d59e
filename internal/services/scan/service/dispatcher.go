package service

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	perr "shelfscan/internal/platform/errors"
	"shelfscan/internal/platform/logger"
	"shelfscan/internal/services/scan/domain"
	"shelfscan/internal/services/scan/registry"
)

// DefaultProductTTL bounds how long resolved product refs stay listed
const DefaultProductTTL = 12 * time.Hour

// Dispatcher resolves promoted codes against the product lookup
// Lookup and Classify are pure with respect to the registry; Apply mutates it
type Dispatcher struct {
	reg      *registry.Registry
	lookup   domain.ProductLookup
	persist  *registry.Persister
	products *cache.Cache
	log      logger.Logger
}

// NewDispatcher wires a dispatcher, ttl <= 0 means DefaultProductTTL
func NewDispatcher(reg *registry.Registry, lookup domain.ProductLookup, persist *registry.Persister, ttl time.Duration) *Dispatcher {
	if ttl <= 0 {
		ttl = DefaultProductTTL
	}
	return &Dispatcher{
		reg:      reg,
		lookup:   lookup,
		persist:  persist,
		products: cache.New(ttl, ttl/2),
		log:      *logger.Named("dispatcher"),
	}
}

// Resolve runs the whole resolution for code and applies the outcome
//
//	already confirmed         -> AlreadyConfirmed, lookup not called
//	found, >= 1 result        -> Confirmed
//	not found, empty, refused -> Invalid
//	timeout, network, 5xx     -> TransientFailure, registry untouched
func (d *Dispatcher) Resolve(ctx context.Context, code string) domain.Outcome {
	if d.reg.IsConfirmed(code) {
		return domain.Outcome{Kind: domain.OutcomeAlreadyConfirmed, Code: code}
	}
	out := d.Lookup(ctx, code)
	d.Apply(out)
	return out
}

// Lookup calls the product lookup and classifies the answer
func (d *Dispatcher) Lookup(ctx context.Context, code string) domain.Outcome {
	start := time.Now()
	res, err := d.lookup.LookupByCode(ctx, code)
	out := Classify(code, res, err)
	d.log.Debug().
		Str("code", code).
		Str("outcome", string(out.Kind)).
		Str("reason", out.Reason).
		Dur("latency", time.Since(start)).
		Msg("lookup classified")
	return out
}

// Classify maps a lookup answer to an outcome
func Classify(code string, res domain.LookupResult, err error) domain.Outcome {
	switch {
	case err != nil && perr.IsTransient(err):
		return domain.Outcome{Kind: domain.OutcomeTransient, Code: code, Reason: err.Error(), Err: err}
	case err != nil && perr.IsCode(err, perr.ErrorCodeNotFound):
		return domain.Outcome{Kind: domain.OutcomeInvalid, Code: code, Reason: "not found", Err: err}
	case err != nil && permanent(err):
		return domain.Outcome{Kind: domain.OutcomeInvalid, Code: code, Reason: err.Error(), Err: err}
	case err != nil:
		return domain.Outcome{Kind: domain.OutcomeTransient, Code: code, Reason: err.Error(), Err: err}
	case !res.Found && len(res.Results) > 0:
		return domain.Outcome{Kind: domain.OutcomeInvalid, Code: code, Reason: "ambiguous response"}
	case !res.Found:
		return domain.Outcome{Kind: domain.OutcomeInvalid, Code: code, Reason: "not found"}
	case len(res.Results) == 0:
		return domain.Outcome{Kind: domain.OutcomeInvalid, Code: code, Reason: "no products"}
	default:
		return domain.Outcome{Kind: domain.OutcomeConfirmed, Code: code, Products: res.Results}
	}
}

// permanent reports lookup errors that speak about the code itself; anything
// else is infrastructure and leaves the code eligible
func permanent(err error) bool {
	switch perr.CodeOf(err) {
	case perr.ErrorCodeValidation, perr.ErrorCodeJSON:
		return true
	}
	return false
}

// Apply records a confirmed or invalid outcome in the registry and queues a save
// it reports whether the registry changed
func (d *Dispatcher) Apply(out domain.Outcome) bool {
	var changed bool
	switch out.Kind {
	case domain.OutcomeConfirmed:
		changed = d.reg.Confirm(out.Code)
		if len(out.Products) > 0 {
			d.products.Set(out.Code, out.Products, cache.DefaultExpiration)
		}
	case domain.OutcomeInvalid:
		changed = d.reg.Invalidate(out.Code)
		d.products.Delete(out.Code)
	default:
		return false
	}
	if changed && d.persist != nil {
		d.persist.Submit(d.reg.Snapshot())
	}
	return changed
}

// Products returns cached product refs for a confirmed code
func (d *Dispatcher) Products(code string) []domain.ProductRef {
	v, ok := d.products.Get(code)
	if !ok {
		return nil
	}
	refs, _ := v.([]domain.ProductRef)
	return refs
}

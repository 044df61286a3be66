// Package billing turns tracked time into invoice amounts. All money is in
// integer euro cents.
package billing

import (
	"time"

	"github.com/sadopc/solia/internal/progress"
	"github.com/sadopc/solia/internal/store"
)

// VAT is a value added tax rate in whole percent.
type VAT struct {
	Rate int64
}

var (
	Standard = VAT{Rate: 19}
	Reduced  = VAT{Rate: 7}
)

// Toggle switches between the standard and the reduced rate.
func (v VAT) Toggle() VAT {
	if v == Standard {
		return Reduced
	}
	return Standard
}

// FromNet adds tax to a net amount.
func (v VAT) FromNet(net int64) (vat, gross int64) {
	vat = divRound(net*v.Rate, 100)
	return vat, net + vat
}

// FromGross splits a gross amount into net and tax.
func (v VAT) FromGross(gross int64) (net, vat int64) {
	net = divRound(gross*100, 100+v.Rate)
	return net, gross - net
}

// FromTax derives net and gross from a tax amount. A zero rate yields zero.
func (v VAT) FromTax(vat int64) (net, gross int64) {
	if v.Rate <= 0 {
		return 0, vat
	}
	net = divRound(vat*100, v.Rate)
	return net, net + vat
}

// Amount bills seconds at an hourly rate.
func Amount(seconds, rateCents int64) int64 {
	return divRound(seconds*rateCents, 3600)
}

// Invoice sums a project's tracked time and prices it.
type Invoice struct {
	Seconds   int64
	Estimated *int64
	RateCents int64
	Net       int64
	VAT       int64
	Gross     int64
}

// ProjectInvoice prices the entries booked on project at service's rate.
// Without a service the amounts are zero but the time is still summed.
func ProjectInvoice(project store.Project, service *store.Service, entries []store.TimeEntry, now time.Time, vat VAT) Invoice {
	var secs int64
	for _, e := range entries {
		if e.ProjectID == nil || *e.ProjectID != project.ID {
			continue
		}
		secs += int64(progress.EntryDuration(e, now) / time.Second)
	}

	inv := Invoice{Seconds: secs, Estimated: project.EstimatedSeconds}
	if service == nil {
		return inv
	}
	inv.RateCents = service.RateCents
	inv.Net = Amount(secs, service.RateCents)
	inv.VAT, inv.Gross = vat.FromNet(inv.Net)
	return inv
}

// divRound divides rounding half away from zero.
func divRound(a, b int64) int64 {
	if b == 0 {
		return 0
	}
	if (a < 0) != (b < 0) {
		return -((-a*2 + b) / (2 * b))
	}
	return (a*2 + b) / (2 * b)
}

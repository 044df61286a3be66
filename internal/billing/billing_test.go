package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sadopc/solia/internal/store"
)

func TestAmount(t *testing.T) {
	tests := []struct {
		secs, rate, want int64
	}{
		{3600, 8550, 8550},
		{1800, 8550, 4275},
		{90 * 60, 6000, 9000},
		{1, 1800, 1},  // 0.5 rounds up
		{1, 1799, 0},  // 0.4997
		{0, 10000, 0},
		{3600, 0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Amount(tt.secs, tt.rate), "Amount(%d, %d)", tt.secs, tt.rate)
	}
}

func TestFromNet(t *testing.T) {
	vat, gross := Standard.FromNet(10000)
	assert.Equal(t, int64(1900), vat)
	assert.Equal(t, int64(11900), gross)

	vat, gross = Reduced.FromNet(10000)
	assert.Equal(t, int64(700), vat)
	assert.Equal(t, int64(10700), gross)

	// 0.19 * 1.50 = 0.285 rounds to 0.29
	vat, gross = Standard.FromNet(150)
	assert.Equal(t, int64(29), vat)
	assert.Equal(t, int64(179), gross)
}

func TestFromGross(t *testing.T) {
	net, vat := Standard.FromGross(11900)
	assert.Equal(t, int64(10000), net)
	assert.Equal(t, int64(1900), vat)

	// 100 / 1.19 = 84.03
	net, vat = Standard.FromGross(100)
	assert.Equal(t, int64(84), net)
	assert.Equal(t, int64(16), vat)

	net, vat = Reduced.FromGross(10700)
	assert.Equal(t, int64(10000), net)
	assert.Equal(t, int64(700), vat)
}

func TestFromTax(t *testing.T) {
	net, gross := Standard.FromTax(1900)
	assert.Equal(t, int64(10000), net)
	assert.Equal(t, int64(11900), gross)

	net, gross = VAT{}.FromTax(50)
	assert.Zero(t, net)
	assert.Equal(t, int64(50), gross)
}

func TestToggle(t *testing.T) {
	assert.Equal(t, Reduced, Standard.Toggle())
	assert.Equal(t, Standard, Reduced.Toggle())
	assert.Equal(t, Standard, VAT{Rate: 5}.Toggle())
}

func TestDivRoundNegative(t *testing.T) {
	assert.Equal(t, int64(-2), divRound(-3, 2))
	assert.Equal(t, int64(-1), divRound(-4, 3))
	assert.Zero(t, divRound(5, 0))
}

func TestProjectInvoice(t *testing.T) {
	now := time.Date(2024, 3, 13, 17, 0, 0, 0, time.Local)
	pid, other := int64(7), int64(8)
	est := int64(4 * 3600)
	project := store.Project{ID: pid, Name: "Relaunch", EstimatedSeconds: &est}

	end1 := now.Add(-2 * time.Hour)
	entries := []store.TimeEntry{
		{ProjectID: &pid, Start: end1.Add(-90 * time.Minute), End: &end1},
		{ProjectID: &pid, Start: now.Add(-30 * time.Minute)}, // running
		{ProjectID: &other, Start: now.Add(-5 * time.Hour), End: &end1},
		{Start: now.Add(-time.Hour), End: &now},
	}
	service := &store.Service{ID: 1, Name: "Development", RateCents: 8000}

	inv := ProjectInvoice(project, service, entries, now, Standard)
	assert.Equal(t, int64(2*3600), inv.Seconds)
	assert.Equal(t, &est, inv.Estimated)
	assert.Equal(t, int64(8000), inv.RateCents)
	assert.Equal(t, int64(16000), inv.Net)
	assert.Equal(t, int64(3040), inv.VAT)
	assert.Equal(t, int64(19040), inv.Gross)
}

func TestProjectInvoiceWithoutService(t *testing.T) {
	now := time.Date(2024, 3, 13, 17, 0, 0, 0, time.Local)
	pid := int64(7)
	end := now
	entries := []store.TimeEntry{{ProjectID: &pid, Start: now.Add(-time.Hour), End: &end}}

	inv := ProjectInvoice(store.Project{ID: pid}, nil, entries, now, Standard)
	assert.Equal(t, int64(3600), inv.Seconds)
	assert.Zero(t, inv.Net)
	assert.Zero(t, inv.Gross)
}

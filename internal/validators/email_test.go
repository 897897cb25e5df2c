package validators

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeResolver struct {
	mx  map[string][]*net.MX
	ips map[string][]net.IPAddr
}

func (f fakeResolver) LookupMX(_ context.Context, name string) ([]*net.MX, error) {
	if mx, ok := f.mx[name]; ok {
		return mx, nil
	}
	return nil, errors.New("no such host")
}

func (f fakeResolver) LookupIPAddr(_ context.Context, host string) ([]net.IPAddr, error) {
	if ips, ok := f.ips[host]; ok {
		return ips, nil
	}
	return nil, errors.New("no such host")
}

func TestEmailDomainChecker(t *testing.T) {
	d := NewEmailDomainChecker(fakeResolver{
		mx:  map[string][]*net.MX{"mail.example.com": {{Host: "mx.example.com.", Pref: 10}}},
		ips: map[string][]net.IPAddr{"a-only.example.com": {{IP: net.ParseIP("192.0.2.1")}}},
	})
	ctx := context.Background()

	assert.True(t, d.Valid(ctx, "ana@mail.example.com"))
	assert.True(t, d.Valid(ctx, "ana@a-only.example.com"))
	assert.False(t, d.Valid(ctx, "ana@nowhere.example.com"))
	assert.False(t, d.Valid(ctx, "ana@"))
	assert.False(t, d.Valid(ctx, "no-at-sign"))
}

package fetch

import "time"

// DefaultMaxHops is the redirect hop budget when Options leaves it zero.
const DefaultMaxHops uint = 20

type Options struct {
	Redirect RedirectOptions
	Timeout  TimeoutOptions
}

type RedirectOptions struct {
	// MaxHops bounds how many redirects one fetch may follow. Zero means
	// DefaultMaxHops.
	MaxHops uint
}

type TimeoutOptions struct {
	// Fetch bounds one whole fetch call, redirects included. Zero
	// disables the timeout; the context still applies.
	Fetch time.Duration
}

func (o Options) withDefaults() Options {
	if o.Redirect.MaxHops == 0 {
		o.Redirect.MaxHops = DefaultMaxHops
	}
	return o
}

package cbdt

// Version tags for the image-data and index tables.
const (
	// Version2 is the EBDT/EBLC version; it is the default.
	Version2 uint32 = 0x00020000

	// Version3 is the version defined for CBDT/CBLC.
	Version3 uint32 = 0x00030000
)

// Option configures Build and the individual table builders.
type Option func(*config)

// config holds the codec configuration.
type config struct {
	version uint32
	workers int
	ppem    uint8
	verify  bool
}

// defaultConfig returns the default codec configuration.
func defaultConfig() config {
	return config{
		version: Version2,
		workers: 1,
	}
}

func newConfig(opts []Option) config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithVersion sets the version tag written at the start of both tables.
func WithVersion(v uint32) Option {
	return func(c *config) {
		c.version = v
	}
}

// WithWorkers sets the number of goroutines used to encode glyph images.
// Values below 2 encode sequentially. Offsets are always assigned in a
// single sequential pass.
func WithWorkers(n int) Option {
	return func(c *config) {
		c.workers = n
	}
}

// WithPPEM fixes the pixels-per-em of the strike instead of deriving it
// from the glyph advances. Zero restores the derived value.
func WithPPEM(ppem uint8) Option {
	return func(c *config) {
		c.ppem = ppem
	}
}

// WithVerify makes Build decode the generated tables again and check that
// every glyph can be located. A mismatch is reported as *InvariantError.
func WithVerify(on bool) Option {
	return func(c *config) {
		c.verify = on
	}
}

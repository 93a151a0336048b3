package auth

// Identity is what an external sign-in provider asserts about a user after
// a successful code exchange. It carries facts only; linking it to an
// account is the resolver's job.
type Identity struct {
	Provider       string // registry name, e.g. "google"
	ProviderUserID string // the provider's subject (sub)
	Email          string
	EmailVerified  bool
	Name           string // display name, may be empty
}

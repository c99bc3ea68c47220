package domain

var BuildInfo struct {
	Version string
	Commit  string
}

package vsm

// Version is the release version. Builds override it with
// -ldflags "-X github.com/aretw0/vsm.Version=v1.2.3".
var Version = "dev"

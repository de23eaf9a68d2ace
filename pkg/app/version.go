package app

// Version is the discordmenu release, overridden at build time with
// -ldflags "-X github.com/small-frappuccino/discordmenu/pkg/app.Version=...".
var Version = "dev"

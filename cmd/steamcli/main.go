package main

import (
	"steamcommunity/cmd/steamcli/commands"
	"steamcommunity/lib/serviceutil"
	"steamcommunity/lib/telemetry"
)

func main() {
	ctx := serviceutil.SignalContext()
	telemetry.SetupFromEnv(ctx, "steamcli")
	telemetry.InitSlog(true)
	commands.ExecuteContext(ctx)
}

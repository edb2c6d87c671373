// Package autoload loads .env files into the process environment on import.
package autoload

import (
	"context"
	"os"

	"amplification-report/app/src/infra"
	"amplification-report/app/src/infra/utils"
	"amplification-report/app/src/infra/utils/dotenv"
)

var logger = infra.NewLogger(os.Stderr, "autoload")

func init() {
	paths := utils.SplitList(os.Getenv("AMPLIFY_ENV_FILES"))
	if err := dotenv.Load(paths...); err != nil {
		logger.Errorf(context.Background(), "dotenv autoload: %v", err)
	}
}

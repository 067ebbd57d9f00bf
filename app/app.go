package app

import (
	"github.com/formwell/formwell/config"
	"github.com/formwell/formwell/survey"
)

type App struct {
	*survey.Store
	config.Config
}

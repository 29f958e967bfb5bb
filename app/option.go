package app

type Option func(app *App)

func WithVersion(version string) Option {
	return func(app *App) {
		app.version = version
	}
}

func WithWorkDir(dir string) Option {
	return func(app *App) {
		app.workDir = dir
	}
}

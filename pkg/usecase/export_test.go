package usecase

var (
	SplitArgs   = splitArgs
	BindArgs    = bindArgs
	WantedLevel = wantedLevel
)

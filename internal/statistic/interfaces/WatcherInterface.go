package interfaces

type WatcherInterface interface {
	Init() error
	Stop()
	Tick() (bool, error)
	Export() error
}

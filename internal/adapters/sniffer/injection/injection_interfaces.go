package injection

// PacketInjector defines the interface for injecting radiotap frames
type PacketInjector interface {
	Inject(packet []byte) error
	Close() error
}

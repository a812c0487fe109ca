package errors

// Kind classifies a failure so callers can react without parsing messages.
type Kind int

const (
	Other Kind = iota
	IO
	InvalidParam
	ProcessSpawn
	ProcessExit
	MissingParent
	URLParse
	Connect
	FetchNegotiation
	FetchExecution
	Clone
	CheckoutPrep
	Checkout
	RefTransaction
	ConfigLookupUnsupported
	ConfigLookup
	Cancelled
)

func (k Kind) String() string {
	switch k {
	case Other:
		return "other error"
	case IO:
		return "I/O error"
	case InvalidParam:
		return "invalid parameter"
	case ProcessSpawn:
		return "failed to start process"
	case ProcessExit:
		return "process exited with failure"
	case MissingParent:
		return "path has no parent directory"
	case URLParse:
		return "invalid remote URL"
	case Connect:
		return "failed to connect to remote"
	case FetchNegotiation:
		return "fetch negotiation failed"
	case FetchExecution:
		return "fetch failed"
	case Clone:
		return "clone failed"
	case CheckoutPrep:
		return "failed to prepare checkout"
	case Checkout:
		return "checkout failed"
	case RefTransaction:
		return "reference transaction failed"
	case ConfigLookupUnsupported:
		return "configuration lookup not supported"
	case ConfigLookup:
		return "configuration lookup failed"
	case Cancelled:
		return "operation cancelled"
	}
	return "unknown kind"
}

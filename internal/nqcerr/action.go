package nqcerr

type Action int8

const (
	Unknown Action = iota
	Protect
	Recover
	Encode
	Decode
	Add
	Scale
	Wrap
	Unwrap
	Store
)

func (a Action) String() string {
	actions := map[Action]string{
		Unknown: "unknown",
		Protect: "protect",
		Recover: "recover",
		Encode:  "encode",
		Decode:  "decode",
		Add:     "add",
		Scale:   "scale",
		Wrap:    "wrap",
		Unwrap:  "unwrap",
		Store:   "store",
	}

	if str, ok := actions[a]; ok {
		return str
	}
	return "unknown"
}

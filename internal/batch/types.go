package batch

// Batch is the set of files submitted together in one run.
type Batch struct {
	Dir        string
	Entries    []FileEntry
	TotalBytes int64
}

type FileEntry struct {
	Name   string
	Path   string
	Length int64
}

func (b *Batch) Names() []string {
	names := make([]string, 0, len(b.Entries))
	for _, e := range b.Entries {
		names = append(names, e.Name)
	}
	return names
}

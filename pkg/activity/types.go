package activity

// Sentinel values used when no real project can be resolved for a file.
const (
	// UntitledRoot keys activity for files outside any workspace folder.
	UntitledRoot = "Untitled"
	// UnnamedProject is the human name used for the sentinel project.
	UnnamedProject = "Unnamed"
)

// FileActivity accumulates per-file counters within the current window.
// A file is ACTIVE while End == 0 and INACTIVE once another file in the same
// project takes focus.
type FileActivity struct {
	Added         int `json:"add"`
	Deleted       int `json:"delete"`
	Pasted        int `json:"paste"`
	Opened        int `json:"open"`
	Closed        int `json:"close"`
	NetKeystrokes int `json:"netkeys"`
	Length        int `json:"length"`
	LineCount     int `json:"lines"`
	LinesAdded    int `json:"linesAdded"`
	LinesRemoved  int `json:"linesRemoved"`

	Start      int64 `json:"start"`
	LocalStart int64 `json:"local_start"`
	End        int64 `json:"end"`
	LocalEnd   int64 `json:"local_end"`

	Syntax                   string  `json:"syntax"`
	FileAgeDays              float64 `json:"fileAgeDays"`
	RepoFileContributorCount int     `json:"repoFileContributorCount"`
}

// ProjectActivity accumulates activity for one project root within the
// current window. Files maps absolute filename to its activity.
type ProjectActivity struct {
	Directory  string
	Name       string
	Keystrokes int
	Start      int64
	LocalStart int64

	RepoContributorCount int
	RepoFileCount        int

	Files map[string]*FileActivity
}

// HasData reports whether the project accumulated anything worth sending:
// at least one accepted keystroke or one counted add/delete/paste.
func (p *ProjectActivity) HasData() bool {
	if p.Keystrokes > 0 {
		return true
	}
	for _, f := range p.Files {
		if f.Added > 0 || f.Deleted > 0 || f.Pasted > 0 {
			return true
		}
	}
	return false
}

// FileRecord is a file entry within an emitted Record.
type FileRecord struct {
	Filename string `json:"file"`
	FileActivity
}

// Record is the payload emitted per project on flush and resubmitted by the
// offline replayer. Emitted records are complete: every file carries a
// non-zero end timestamp.
type Record struct {
	Directory  string       `json:"directory"`
	Name       string       `json:"name"`
	Keystrokes int          `json:"keystrokes"`
	Start      int64        `json:"start"`
	LocalStart int64        `json:"local_start"`
	Files      []FileRecord `json:"files"`

	RepoContributorCount int `json:"repoContributorCount"`
	RepoFileCount        int `json:"repoFileCount"`
}

// snapshot copies the project into an emission-ready Record, stamping end
// timestamps on any file still active.
func (p *ProjectActivity) snapshot(nowSec, localNowSec int64) Record {
	rec := Record{
		Directory:            p.Directory,
		Name:                 p.Name,
		Keystrokes:           p.Keystrokes,
		Start:                p.Start,
		LocalStart:           p.LocalStart,
		RepoContributorCount: p.RepoContributorCount,
		RepoFileCount:        p.RepoFileCount,
	}
	for filename, f := range p.Files {
		fr := FileRecord{Filename: filename, FileActivity: *f}
		if fr.End == 0 {
			fr.End = nowSec
			fr.LocalEnd = localNowSec
		}
		rec.Files = append(rec.Files, fr)
	}
	return rec
}

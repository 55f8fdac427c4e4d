package shell

import (
	"bytes"
	"fmt"

	"ironveil/nexis/kernel"
)

// output buffers a command's text until the command returns, then lands
// it on the console or in the redirection target in one piece.
type output struct {
	buf   bytes.Buffer
	redir redirect
}

func (o *output) printf(format string, args ...any) {
	fmt.Fprintf(&o.buf, format, args...)
}

func (o *output) print(s string) {
	o.buf.WriteString(s)
}

func (o *output) write(p []byte) {
	o.buf.Write(p)
}

// land delivers the buffered output. Redirected output goes through the
// filesystem; ">>" appends to whatever the file already holds.
func (o *output) land(k *kernel.Kernel) error {
	if o.redir.Path == "" {
		if o.buf.Len() > 0 {
			k.Console().Write(o.buf.Bytes())
		}
		return nil
	}
	data := o.buf.Bytes()
	if o.redir.Append {
		if old, err := k.FS().Read(o.redir.Path); err == nil {
			merged := make([]byte, 0, len(old)+len(data))
			merged = append(merged, old...)
			merged = append(merged, data...)
			data = merged
		}
	}
	return k.FS().Write(o.redir.Path, data)
}

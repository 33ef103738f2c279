package airtable

import (
	"strings"

	"github.com/valyala/bytebufferpool"
)

var formulaEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// identityFormula builds OR({FixtureID}='a',{FixtureID}='b',...).
func identityFormula(identities []string) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString("OR(")
	for idx, identity := range identities {
		if idx > 0 {
			_ = buf.WriteByte(',')
		}
		_, _ = buf.WriteString("{" + identityField + "}='")
		_, _ = buf.WriteString(formulaEscaper.Replace(identity))
		_ = buf.WriteByte('\'')
	}
	_ = buf.WriteByte(')')
	return buf.String()
}

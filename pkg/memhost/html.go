package memhost

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// voidElements are elements that cannot have children and have no closing tag.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// PropString converts a property value to its string form.
func PropString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// HTML renders the subtree rooted at n.
func (n *Node) HTML() string {
	var sb strings.Builder
	_ = n.WriteHTML(&sb)
	return sb.String()
}

// WriteHTML renders the subtree rooted at n to w. Attributes are written in
// sorted order; empty attributes are skipped.
func (n *Node) WriteHTML(w io.Writer) error {
	if n.typ == TextNode {
		_, err := io.WriteString(w, escapeHTML(n.text))
		return err
	}

	if _, err := io.WriteString(w, "<"+n.tag); err != nil {
		return err
	}
	for _, key := range sortedKeys(n.props) {
		value := n.props[key]
		if b, ok := value.(bool); ok {
			if b {
				if _, err := io.WriteString(w, " "+attrName(key)); err != nil {
					return err
				}
			}
			continue
		}
		s := PropString(value)
		if s == "" {
			continue
		}
		if _, err := fmt.Fprintf(w, ` %s="%s"`, attrName(key), escapeAttr(s)); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(w, ">"); err != nil {
		return err
	}
	if voidElements[n.tag] {
		return nil
	}

	for _, c := range n.children {
		if err := c.WriteHTML(w); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "</"+n.tag+">")
	return err
}

func attrName(key string) string {
	switch key {
	case "className":
		return "class"
	case "htmlFor":
		return "for"
	default:
		return key
	}
}

var htmlReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

var attrReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
	"\n", "&#10;",
	"\r", "&#13;",
	"\t", "&#9;",
)

func escapeHTML(s string) string { return htmlReplacer.Replace(s) }

func escapeAttr(s string) string { return attrReplacer.Replace(s) }

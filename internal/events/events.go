// Package events 解析历史事件文本（国家的改名、合并、分裂、独立）。
//
// 行格式：<date> <sourceNames> <op> <targetNames>
// names 可以用 " / " 分隔多个；op 取值 * = + - > <。
package events

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/John-Robertt/oxgeo/internal/domain"
)

var lineRE = regexp.MustCompile(`^([\d\-]+) +(.+) ([*=+\-><]) (.+)`)

const nameSep = " / "

// ParseError 表示某一行不符合语法。整个文件解析失败，不做逐行容错。
type ParseError struct {
	Line int
	Text string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("历史事件第 %d 行不符合语法：%q", e.Line, e.Text)
}

// ParseFile 读取并解析事件文件。
func ParseFile(path string) (domain.Events, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Events{}, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse 解析事件文本。以 # 开头的行是注释，空行跳过。
func Parse(r io.Reader) (domain.Events, error) {
	out := domain.NewEvents()

	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		m := lineRE.FindStringSubmatch(line)
		if m == nil {
			return domain.Events{}, &ParseError{Line: n, Text: line}
		}
		apply(out, m[1], m[2], m[3], m[4])
	}
	if err := sc.Err(); err != nil {
		return domain.Events{}, err
	}
	return out, nil
}

// apply 按运算符构造记录。注意 = < 用整段 a 做 dissolved 的 key，= > 用整段 b 做 created 的 key。
func apply(out domain.Events, date, a, op, b string) {
	as := strings.Split(a, nameSep)
	bs := strings.Split(b, nameSep)

	switch op {
	case "*":
		out.Independence[b] = domain.Event{Country: as, Date: date}
	case "=":
		out.Dissolved[a] = domain.Event{Country: bs, Date: date, Dissolved: domain.KindRenamed}
		out.Created[b] = domain.Event{Country: as, Date: date, Created: domain.KindRenamed}
	case "+":
		for _, c := range as {
			out.Dissolved[c] = domain.Event{Country: bs, Date: date, Dissolved: domain.KindJoined}
		}
	case "-":
		for _, c := range bs {
			out.Created[c] = domain.Event{Country: as, Date: date, Created: domain.KindSplit}
		}
	case ">":
		for _, c := range as {
			out.Dissolved[c] = domain.Event{Country: bs, Date: date, Dissolved: domain.KindMerged}
		}
		out.Created[b] = domain.Event{Country: as, Date: date, Created: domain.KindMerged}
	case "<":
		out.Dissolved[a] = domain.Event{Country: bs, Date: date, Dissolved: domain.KindSplit}
		for _, c := range bs {
			out.Created[c] = domain.Event{Country: as, Date: date, Created: domain.KindMerged}
		}
	}
}

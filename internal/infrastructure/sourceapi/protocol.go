package sourceapi

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/vidahome/backend/internal/domain/integration"
)

// Process names understood by the CRM gateway. Each request carries a
// credential header followed by one group per queued process; the
// response is keyed by these names.
const (
	procPagination = "paginacion"
	procDetail     = "ficha"
	procFeatured   = "destacados"
)

// process is one queued operation of a gateway request.
type process struct {
	kind  string
	pos   int // 1-based position in the remote result set
	num   int // number of elements to return
	where string
	order string
}

const maxClauseLen = 200

var (
	clauseForbiddenChars = regexp.MustCompile(`['";()\\]`)
	clauseForbiddenWords = regexp.MustCompile(`(?i)\b(insert|update|delete|drop|union|exec|script)\b`)
)

// sanitizeClause validates a where/order clause before it is embedded
// in the parameter string. The gateway splices these into SQL on its
// side, so anything that smells like injection is rejected here.
func sanitizeClause(clause string) (string, error) {
	clause = strings.TrimSpace(clause)
	if clause == "" {
		return "", nil
	}
	if len(clause) > maxClauseLen {
		return "", fmt.Errorf("%w: clause exceeds %d characters", integration.ErrInvalidQuery, maxClauseLen)
	}
	if clauseForbiddenChars.MatchString(clause) {
		return "", fmt.Errorf("%w: clause contains forbidden characters", integration.ErrInvalidQuery)
	}
	if clauseForbiddenWords.MatchString(clause) {
		return "", fmt.Errorf("%w: clause contains forbidden keyword", integration.ErrInvalidQuery)
	}
	return clause, nil
}

// buildParam assembles the gateway parameter string: a credential
// header "agency;password;language;lostipos" followed by one
// ";kind;pos;num;where;order" group per process.
func (c *Client) buildParam(procs []process) (string, error) {
	agency := strconv.Itoa(c.cfg.AgencyNumber)
	if c.cfg.AgencySuffix > 0 {
		agency += strconv.Itoa(c.cfg.AgencySuffix)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s;%s;%d;lostipos", agency, c.cfg.Password, c.cfg.LanguageID)

	for _, p := range procs {
		if p.pos < 1 || p.num < 1 {
			return "", fmt.Errorf("%w: position and count must be positive", integration.ErrInvalidQuery)
		}
		where, err := sanitizeClause(p.where)
		if err != nil {
			return "", err
		}
		order, err := sanitizeClause(p.order)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, ";%s;%d;%d;%s;%s", p.kind, p.pos, p.num, where, order)
	}

	return b.String(), nil
}

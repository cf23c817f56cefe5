// Package gen produces pseudo-random domain names, IPv4 strings and delays
// for driving the cache under load.
package gen

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/miekg/dns"
)

var words = []string{
	"Improve", "Trust", "Immediately", "Discover", "Profit", "Learn", "Know", "Understand",
	"Powerful", "Best", "Win", "More", "Bonus", "Exclusive", "Extra", "You", "Free", "Health",
	"Guarantee", "New", "Proven", "Safety", "Money", "Now", "Today", "Results", "Protect", "Help",
	"Easy", "Amazing", "Latest", "Extraordinary", "Worst", "Ultimate", "Hot", "First", "Big",
	"Anniversary", "Premiere", "Basic", "Complete", "Save", "Plus", "Create", "Secret", "Inspires",
	"Take", "Promote", "Increase", "Anonymous", "Authentic", "Backed", "Bestselling", "Certified",
	"Endorsed", "Guaranteed", "Ironclad", "Lifetime", "Moneyback", "Official", "Privacy",
	"Protected", "Recessionproof", "Refund", "Research", "Secure", "Tested", "Verify",
	"Unconditional", "Suddenly", "Announcing", "Introducing", "Improvement", "Sensational",
	"Remarkable", "Revolutionary", "Startling", "Miracle", "Magic", "Offer", "Quick", "Wanted",
	"Challenge", "Compare", "Bargain", "Hurry", "Because", "Instantly",
}

var zones = []string{
	"af", "ax", "al", "dz", "as", "ad", "ao", "ai", "aq", "ag", "ar", "am", "aw", "ac", "au", "at",
	"az", "bs", "bh", "bd", "bb", "eus", "by", "be", "bz", "bj", "bm", "bt", "bo", "bq", "nl", "ba",
	"bw", "bv", "br", "io", "vg", "bn", "bg", "bf", "mm", "bi", "kh", "cm", "ca", "cv", "cat", "ky",
	"cf", "td", "cl", "cn", "cx", "cc", "co", "km", "cd", "cg", "ck", "cr", "ci", "hr", "cu", "cw",
	"cy", "cz", "dk", "dj", "dm", "do", "tl", "ec", "eg", "sv", "gq", "er", "ee", "et", "eu", "fk",
	"fo", "fm", "fj", "fi", "fr", "gf", "pf", "tf", "ga", "gal", "gm", "ps", "ge", "de", "gh", "gi",
	"gr", "gl", "gd", "gp", "gu", "gt", "gg", "gn", "gw", "gy", "ht", "hm", "hn", "hk", "hu", "is",
	"in", "id", "ir", "iq", "ie", "im", "il", "it", "jm", "jp", "je", "jo", "kz", "ke", "ki", "kw",
	"kg", "la", "lv", "lb", "ls", "lr", "ly", "li", "lt", "lu", "mo", "mk", "mg", "mw", "my", "mv",
	"ml", "mt", "mh", "mq", "mr", "mu", "yt", "mx", "md", "mc", "mn", "me", "ms", "ma", "mz", "na",
	"nr", "np", "nc", "nz", "ni", "ne", "ng", "nu", "nf", "tr", "kp", "mp", "no", "om", "pk", "pw",
	"pa", "pg", "py", "pe", "ph", "pn", "pl", "pt", "pr", "qa", "ro", "ru", "rw", "re", "bl", "sh",
	"kn", "lc", "mf", "pm", "vc", "ws", "sm", "st", "sa", "sn", "rs", "sc", "sl", "sg", "sx", "sk",
	"si", "sb", "so", "za", "gs", "kr", "ss", "es", "lk", "sd", "sr", "sj", "sz", "se", "ch", "sy",
	"tw", "tj", "tz", "th", "tg", "tk", "to", "tt", "tn", "tm", "tc", "tv", "ug", "ua", "ae", "uk",
	"us", "vi", "uy", "uz", "vu", "va", "ve", "vn", "wf", "eh", "ye", "zm", "zw",
}

const (
	minWords = 3
	maxWords = 5
)

// Generator is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// New returns a Generator. A zero seed seeds from the clock.
func New(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

func (g *Generator) intn(n int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rnd.Intn(n)
}

// IPv4 returns a dotted quad with uniformly random octets.
func (g *Generator) IPv4() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return fmt.Sprintf("%d.%d.%d.%d",
		g.rnd.Intn(256), g.rnd.Intn(256), g.rnd.Intn(256), g.rnd.Intn(256))
}

// Domain returns a name built from three to five words under a country-code
// zone, such as "FreeBonusNow.de". Word draws that would overflow a DNS label
// are discarded.
func (g *Generator) Domain() string {
	for {
		var b strings.Builder
		n := minWords + g.intn(maxWords-minWords+1)
		for i := 0; i < n; i++ {
			b.WriteString(words[g.intn(len(words))])
		}
		b.WriteByte('.')
		b.WriteString(zones[g.intn(len(zones))])

		name := b.String()
		if _, ok := dns.IsDomainName(name); ok && dns.CountLabel(name) == 2 {
			return name
		}
	}
}

// Delay returns a duration uniformly drawn from [min, max].
func (g *Generator) Delay(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return min + time.Duration(g.rnd.Int63n(int64(max-min)+1))
}

package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// CheckStatus is the outcome of one connectivity step.
type CheckStatus string

const (
	CheckOK   CheckStatus = "OK"
	CheckFail CheckStatus = "FAIL"
	CheckSkip CheckStatus = "SKIP"
)

// CheckRow is one step of a broker check.
type CheckRow struct {
	Target string      `json:"target"`
	Step   string      `json:"step"` // dns, tcp, kafka, topic
	Status CheckStatus `json:"status"`
	Detail string      `json:"detail"`
	Hint   string      `json:"hint,omitempty"`
}

// CheckReport collects the rows of a broker check.
type CheckReport struct {
	Rows       []CheckRow `json:"rows"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt time.Time  `json:"finished_at"`
}

// Failed reports whether any step failed.
func (r *CheckReport) Failed() bool {
	for _, row := range r.Rows {
		if row.Status == CheckFail {
			return true
		}
	}
	return false
}

func (r *CheckReport) add(row CheckRow) {
	r.Rows = append(r.Rows, row)
	slog.Debug("Ingest check", "target", row.Target, "step", row.Step, "status", row.Status, "detail", row.Detail)
}

// Check walks every broker through DNS, TCP and the Kafka handshake and
// verifies that topic is visible. A failed step skips the later steps
// for that broker.
func Check(ctx context.Context, brokers, topic string, timeout time.Duration) *CheckReport {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	r := &CheckReport{StartedAt: time.Now()}
	defer func() { r.FinishedAt = time.Now() }()

	list := splitBrokers(brokers)
	if len(list) == 0 {
		r.add(CheckRow{Target: brokers, Step: "config", Status: CheckFail, Detail: "no brokers configured", Hint: "Set kafka.brokers or SEIFLOW_KAFKA_BROKERS."})
		return r
	}
	for _, addr := range list {
		if !checkDNS(r, addr) || !checkTCP(ctx, r, addr, timeout) {
			continue
		}
		checkTopic(ctx, r, addr, topic, timeout)
	}
	return r
}

func checkDNS(r *CheckReport, addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		r.add(CheckRow{Target: addr, Step: "dns", Status: CheckFail, Detail: fmt.Sprintf("invalid address: %v", err), Hint: "Use host:port."})
		return false
	}
	if _, err := net.LookupHost(host); err != nil {
		r.add(CheckRow{Target: addr, Step: "dns", Status: CheckFail, Detail: fmt.Sprintf("DNS lookup failed: %v", err),
			Hint: "Check /etc/hosts, DNS server, or VPN search domains."})
		return false
	}
	r.add(CheckRow{Target: addr, Step: "dns", Status: CheckOK, Detail: "Resolved host"})
	return true
}

func checkTCP(ctx context.Context, r *CheckReport, addr string, timeout time.Duration) bool {
	start := time.Now()
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		r.add(CheckRow{Target: addr, Step: "tcp", Status: CheckFail, Detail: fmt.Sprintf("TCP connect failed: %v", err),
			Hint: "Broker down, firewall, or wrong advertised listener."})
		return false
	}
	_ = conn.Close()
	r.add(CheckRow{Target: addr, Step: "tcp", Status: CheckOK, Detail: fmt.Sprintf("Connected in %s", time.Since(start).Truncate(time.Millisecond))})
	return true
}

func checkTopic(ctx context.Context, r *CheckReport, addr, topic string, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	dialer := &kafka.Dialer{Timeout: timeout, ClientID: "seiflow-check"}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		r.add(CheckRow{Target: addr, Step: "kafka", Status: CheckFail, Detail: fmt.Sprintf("broker dial failed: %v", err), Hint: checkHint(err)})
		return
	}
	defer conn.Close()
	if _, err := conn.ApiVersions(); err != nil {
		r.add(CheckRow{Target: addr, Step: "kafka", Status: CheckFail, Detail: fmt.Sprintf("ApiVersions failed: %v", err), Hint: checkHint(err)})
		return
	}
	r.add(CheckRow{Target: addr, Step: "kafka", Status: CheckOK, Detail: "ApiVersions OK"})

	if strings.TrimSpace(topic) == "" {
		r.add(CheckRow{Target: addr, Step: "topic", Status: CheckSkip, Detail: "no topic configured"})
		return
	}
	parts, err := conn.ReadPartitions(topic)
	if err != nil {
		r.add(CheckRow{Target: topic, Step: "topic", Status: CheckFail, Detail: fmt.Sprintf("ReadPartitions failed: %v", err), Hint: checkHint(err)})
		return
	}
	leaders := 0
	for _, p := range parts {
		if p.Leader.Host != "" {
			leaders++
		}
	}
	r.add(CheckRow{Target: topic, Step: "topic", Status: CheckOK, Detail: fmt.Sprintf("Topic visible; partitions=%d leaders=%d", len(parts), leaders)})
}

// checkHint maps common broker errors to an operator hint.
func checkHint(err error) string {
	if err == nil {
		return ""
	}
	var ke kafka.Error
	if errors.As(err, &ke) {
		switch ke {
		case kafka.UnknownTopicOrPartition:
			return "Topic does not exist; create it or enable auto creation."
		case kafka.TopicAuthorizationFailed:
			return "Missing topic ACL: Read/Describe on the ingest topic."
		case kafka.SASLAuthenticationFailed:
			return "Broker requires SASL; seiflow connects in plaintext."
		case kafka.LeaderNotAvailable, kafka.NotLeaderForPartition:
			return "Leader not available; check broker health."
		}
	}
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return "Client timeout: check network path or advertised.listeners."
	}
	return ""
}

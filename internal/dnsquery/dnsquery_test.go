package dnsquery

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type mockExchanger struct {
	mock.Mock
}

func (m *mockExchanger) ExchangeContext(ctx context.Context, msg *dns.Msg, addr string) (*dns.Msg, time.Duration, error) {
	args := m.Called(ctx, msg, addr)
	if resp := args.Get(0); resp != nil {
		return resp.(*dns.Msg), args.Get(1).(time.Duration), args.Error(2)
	}
	return nil, args.Get(1).(time.Duration), args.Error(2)
}

type DNSQueryTestSuite struct {
	suite.Suite
	client   *Client
	exchange *mockExchanger
}

func (s *DNSQueryTestSuite) SetupTest() {
	s.exchange = new(mockExchanger)
	s.client = New()
	s.client.Exchange = s.exchange
}

// matchQuestion matches an outgoing message by question name and type.
func matchQuestion(name string, qtype uint16) interface{} {
	return mock.MatchedBy(func(msg *dns.Msg) bool {
		return len(msg.Question) > 0 &&
			msg.Question[0].Qtype == qtype &&
			msg.Question[0].Name == dns.Fqdn(name)
	})
}

func (s *DNSQueryTestSuite) TestQuery() {
	aResp := new(dns.Msg)
	aResp.Answer = []dns.RR{
		&dns.A{
			Hdr: dns.RR_Header{
				Name:   dns.Fqdn("myip.opendns.com"),
				Rrtype: dns.TypeA,
				Class:  dns.ClassINET,
				Ttl:    0,
			},
			A: net.ParseIP("203.0.113.10"),
		},
	}

	aaaaResp := new(dns.Msg)
	aaaaResp.Answer = []dns.RR{
		&dns.AAAA{
			Hdr: dns.RR_Header{
				Name:   dns.Fqdn("myip.opendns.com"),
				Rrtype: dns.TypeAAAA,
				Class:  dns.ClassINET,
				Ttl:    0,
			},
			AAAA: net.ParseIP("2001:db8::42"),
		},
	}

	txtResp := new(dns.Msg)
	txtResp.Answer = []dns.RR{
		&dns.TXT{
			Hdr: dns.RR_Header{
				Name:   dns.Fqdn("o-o.myaddr.l.google.com"),
				Rrtype: dns.TypeTXT,
				Class:  dns.ClassINET,
				Ttl:    0,
			},
			Txt: []string{"203.0.", "113.10"},
		},
	}

	mismatchedResp := new(dns.Msg)
	mismatchedResp.Answer = []dns.RR{
		&dns.AAAA{
			Hdr: dns.RR_Header{
				Name:   dns.Fqdn("myip.opendns.com"),
				Rrtype: dns.TypeAAAA,
				Class:  dns.ClassINET,
				Ttl:    0,
			},
			AAAA: net.ParseIP("2001:db8::42"),
		},
	}

	servfailResp := new(dns.Msg)
	servfailResp.Rcode = dns.RcodeServerFailure

	testCases := []struct {
		name        string
		queryName   string
		qtype       uint16
		setupMock   func(*mockExchanger)
		expected    string
		expectedErr string
	}{
		{
			name:      "A answer",
			queryName: "myip.opendns.com",
			qtype:     dns.TypeA,
			setupMock: func(m *mockExchanger) {
				m.On("ExchangeContext", mock.Anything,
					matchQuestion("myip.opendns.com", dns.TypeA),
					"208.67.222.222:53",
				).Return(aResp, time.Duration(0), nil)
			},
			expected: "203.0.113.10",
		},
		{
			name:      "AAAA answer",
			queryName: "myip.opendns.com",
			qtype:     dns.TypeAAAA,
			setupMock: func(m *mockExchanger) {
				m.On("ExchangeContext", mock.Anything,
					matchQuestion("myip.opendns.com", dns.TypeAAAA),
					mock.Anything,
				).Return(aaaaResp, time.Duration(0), nil)
			},
			expected: "2001:db8::42",
		},
		{
			name:      "TXT answer joins segments",
			queryName: "o-o.myaddr.l.google.com",
			qtype:     dns.TypeTXT,
			setupMock: func(m *mockExchanger) {
				m.On("ExchangeContext", mock.Anything,
					matchQuestion("o-o.myaddr.l.google.com", dns.TypeTXT),
					mock.Anything,
				).Return(txtResp, time.Duration(0), nil)
			},
			expected: "203.0.113.10",
		},
		{
			name:      "answer of the wrong type",
			queryName: "myip.opendns.com",
			qtype:     dns.TypeA,
			setupMock: func(m *mockExchanger) {
				m.On("ExchangeContext", mock.Anything, mock.Anything, mock.Anything).
					Return(mismatchedResp, time.Duration(0), nil)
			},
			expectedErr: ErrNoAnswer.Error(),
		},
		{
			name:      "empty answer section",
			queryName: "myip.opendns.com",
			qtype:     dns.TypeA,
			setupMock: func(m *mockExchanger) {
				m.On("ExchangeContext", mock.Anything, mock.Anything, mock.Anything).
					Return(new(dns.Msg), time.Duration(0), nil)
			},
			expectedErr: ErrNoAnswer.Error(),
		},
		{
			name:      "servfail rcode",
			queryName: "myip.opendns.com",
			qtype:     dns.TypeA,
			setupMock: func(m *mockExchanger) {
				m.On("ExchangeContext", mock.Anything, mock.Anything, mock.Anything).
					Return(servfailResp, time.Duration(0), nil)
			},
			expectedErr: "SERVFAIL",
		},
		{
			name:      "nil response message",
			queryName: "myip.opendns.com",
			qtype:     dns.TypeA,
			setupMock: func(m *mockExchanger) {
				m.On("ExchangeContext", mock.Anything, mock.Anything, mock.Anything).
					Return(nil, time.Duration(0), nil)
			},
			expectedErr: ErrEmptyMsg.Error(),
		},
		{
			name:      "exchange error",
			queryName: "myip.opendns.com",
			qtype:     dns.TypeA,
			setupMock: func(m *mockExchanger) {
				m.On("ExchangeContext", mock.Anything, mock.Anything, mock.Anything).
					Return(nil, time.Duration(0), context.DeadlineExceeded)
			},
			expectedErr: "dns exchange",
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			// Reset mock for each test case
			s.SetupTest()

			if tc.setupMock != nil {
				tc.setupMock(s.exchange)
			}

			answer, err := s.client.Query(context.Background(), "208.67.222.222:53", tc.queryName, tc.qtype)

			if tc.expectedErr != "" {
				s.Error(err)
				s.ErrorContains(err, tc.expectedErr)
				return
			}

			s.NoError(err)
			s.Equal(tc.expected, answer)
			s.True(s.exchange.AssertExpectations(s.T()))
		})
	}
}

func TestDNSQuerySuite(t *testing.T) {
	suite.Run(t, new(DNSQueryTestSuite))
}

package relay

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type RouteTableSuite struct {
	suite.Suite
	logs   *observer.ObservedLogs
	logger *zap.Logger
}

func (s *RouteTableSuite) SetupTest() {
	core, logs := observer.New(zap.WarnLevel)
	s.logs = logs
	s.logger = zap.New(core)
}

func TestRouteTableSuite(t *testing.T) {
	suite.Run(t, new(RouteTableSuite))
}

func (s *RouteTableSuite) TestComposesBasePathAndFragment() {
	t, err := BuildRouteTable([]*Controller{
		NewController("items", "/api/items").GET("/:id", "Get").POST("", "Create"),
	}, s.logger)
	s.Require().NoError(err)

	dest, ok := t.Lookup("GET", "/api/items/:id")
	s.Require().True(ok)
	base, method := dest.Split()
	s.Assert().Equal("/api/items", base)
	s.Assert().Equal("Get", method)

	dest, ok = t.Lookup("POST", "/api/items")
	s.Require().True(ok)
	s.Assert().Equal(Destination("/api/items|Create"), dest)

	id, ok := t.Controller("/api/items")
	s.Assert().True(ok)
	s.Assert().Equal("items", id)
	s.Assert().Equal(2, t.Len())
}

func (s *RouteTableSuite) TestVerbIsCaseInsensitive() {
	t, err := BuildRouteTable([]*Controller{
		NewController("items", "/items").Handle("get", "", "List"),
	}, s.logger)
	s.Require().NoError(err)

	_, ok := t.Lookup("GET", "/items")
	s.Assert().True(ok)
	_, ok = t.Lookup("get", "/items")
	s.Assert().True(ok)
	_, ok = t.Lookup("POST", "/items")
	s.Assert().False(ok)
}

func (s *RouteTableSuite) TestTrailingSlashOnBasePath() {
	t, err := BuildRouteTable([]*Controller{
		NewController("items", "/items/").GET("/:id", "Get"),
		NewController("root", "/").GET("", "Index"),
	}, s.logger)
	s.Require().NoError(err)

	dest, ok := t.Lookup("GET", "/items/:id")
	s.Require().True(ok)
	base, method := dest.Split()
	s.Assert().Equal("/items/", base)
	s.Assert().Equal("Get", method)
	id, ok := t.Controller(base)
	s.Require().True(ok)
	s.Assert().Equal("items", id)

	dest, ok = t.Lookup("GET", "/")
	s.Require().True(ok)
	base, method = dest.Split()
	s.Assert().Equal("/", base)
	s.Assert().Equal("Index", method)
	id, ok = t.Controller(base)
	s.Require().True(ok)
	s.Assert().Equal("root", id)
}

func (s *RouteTableSuite) TestEmptyListIsConfigError() {
	_, err := BuildRouteTable(nil, s.logger)

	s.Require().Error(err)
	s.Assert().Equal("At least one controller is required", err.Error())
	s.Assert().True(errors.Is(err, ErrConfig))
}

func (s *RouteTableSuite) TestNilEntryIsConfigError() {
	_, err := BuildRouteTable([]*Controller{
		NewController("a", "/a").GET("", "List"),
		nil,
	}, s.logger)

	s.Require().Error(err)
	s.Assert().Equal("Controller at index 1 must be a class constructor", err.Error())
}

func (s *RouteTableSuite) TestSkipsControllersWithoutMetadata() {
	t, err := BuildRouteTable([]*Controller{
		NewController("", "/anon").GET("", "List"),
		NewController("bare", "/bare"),
		NewController("ok", "/ok").GET("", "List"),
	}, s.logger)
	s.Require().NoError(err)

	s.Assert().Equal(1, t.Len())
	_, ok := t.Lookup("GET", "/ok")
	s.Assert().True(ok)
	s.Assert().Equal(2, s.logs.FilterMessage("skipping controller without routing metadata").Len())
}

func (s *RouteTableSuite) TestLaterRouteOverwrites() {
	t, err := BuildRouteTable([]*Controller{
		NewController("a", "/x").GET("", "First"),
		NewController("b", "/x").GET("", "Second"),
	}, s.logger)
	s.Require().NoError(err)

	dest, _ := t.Lookup("GET", "/x")
	_, method := dest.Split()
	s.Assert().Equal("Second", method)
	s.Assert().Equal(1, s.logs.FilterMessage("route registered twice; keeping the later one").Len())
}

func (s *RouteTableSuite) TestNilLoggerIsAllowed() {
	_, err := BuildRouteTable([]*Controller{NewController("", "/")}, nil)
	s.Assert().NoError(err)
}

type ListenerTableSuite struct {
	suite.Suite
	logs   *observer.ObservedLogs
	logger *zap.Logger
}

func (s *ListenerTableSuite) SetupTest() {
	core, logs := observer.New(zap.WarnLevel)
	s.logs = logs
	s.logger = zap.New(core)
}

func TestListenerTableSuite(t *testing.T) {
	suite.Run(t, new(ListenerTableSuite))
}

func (s *ListenerTableSuite) TestSortsByKind() {
	t, err := BuildListenerTable([]*Listener{
		OnEvent("created", "user.created"),
		OnMatch("s3", MatchConfig{"Records[0].eventSource": P("aws:s3")}),
	}, s.logger)
	s.Require().NoError(err)

	id, ok := t.ByName("user.created")
	s.Assert().True(ok)
	s.Assert().Equal("created", id)
	s.Assert().True(t.HasPatterns())
}

func (s *ListenerTableSuite) TestEventNameLastWriteWins() {
	t, err := BuildListenerTable([]*Listener{
		OnEvent("first", "user.created"),
		OnEvent("second", "user.created"),
	}, s.logger)
	s.Require().NoError(err)

	id, _ := t.ByName("user.created")
	s.Assert().Equal("second", id)
	s.Assert().False(t.HasPatterns())
}

func (s *ListenerTableSuite) TestPatternsKeepRegistrationOrder() {
	t, err := BuildListenerTable([]*Listener{
		OnMatch("a", MatchConfig{"kind": P("x*")}),
		OnMatch("b", MatchConfig{"kind": Exists()}),
	}, s.logger)
	s.Require().NoError(err)

	id, ok := t.FirstMatch(mustEvent(s.T(), `{"kind": "xyz"}`))
	s.Assert().True(ok)
	s.Assert().Equal("a", id)

	id, ok = t.FirstMatch(mustEvent(s.T(), `{"kind": "other"}`))
	s.Assert().True(ok)
	s.Assert().Equal("b", id)

	_, ok = t.FirstMatch(mustEvent(s.T(), `{"different": 1}`))
	s.Assert().False(ok)
}

func (s *ListenerTableSuite) TestEventNameWinsOverMatchOnSameListener() {
	t, err := BuildListenerTable([]*Listener{
		{ID: "both", EventName: "ping", Match: MatchConfig{"a": Exists()}},
	}, s.logger)
	s.Require().NoError(err)

	_, ok := t.ByName("ping")
	s.Assert().True(ok)
	s.Assert().False(t.HasPatterns())
	s.Assert().Equal(1, s.logs.Len())
}

func (s *ListenerTableSuite) TestSkipsListenersWithoutMetadata() {
	t, err := BuildListenerTable([]*Listener{
		{ID: "nothing"},
		{EventName: "anon"},
		{ID: "empty-match", Match: MatchConfig{}},
	}, s.logger)
	s.Require().NoError(err)

	s.Assert().False(t.HasPatterns())
	_, ok := t.ByName("anon")
	s.Assert().False(ok)
	s.Assert().Equal(3, s.logs.FilterMessage("skipping listener without registration metadata").Len())
}

func (s *ListenerTableSuite) TestNilEntryIsConfigError() {
	_, err := BuildListenerTable([]*Listener{OnEvent("a", "a"), OnEvent("b", "b"), nil}, s.logger)

	s.Require().Error(err)
	s.Assert().Equal("Listener at index 2 must be a class constructor", err.Error())
	s.Assert().True(errors.Is(err, ErrConfig))
}

func (s *ListenerTableSuite) TestEmptyListIsAllowed() {
	t, err := BuildListenerTable(nil, s.logger)
	s.Require().NoError(err)
	s.Assert().False(t.HasPatterns())
}

func (s *ListenerTableSuite) TestWhenSelectsListener() {
	t, err := BuildListenerTable([]*Listener{
		OnWhen("topics", And(
			FieldEquals("Type", "Notification"),
			Not(HasFields("Subject")),
		)),
		OnWhen("fallback", HasFields("Type")),
	}, s.logger)
	s.Require().NoError(err)
	s.Assert().True(t.HasPatterns())

	id, ok := t.FirstMatch(mustEvent(s.T(), `{"Type": "Notification", "Message": "m"}`))
	s.Require().True(ok)
	s.Assert().Equal("topics", id)

	id, ok = t.FirstMatch(mustEvent(s.T(), `{"Type": "Notification", "Subject": "s"}`))
	s.Require().True(ok)
	s.Assert().Equal("fallback", id)
}

func (s *ListenerTableSuite) TestMatchAndWhenMustBothAccept() {
	t, err := BuildListenerTable([]*Listener{{
		ID:    "eu-uploads",
		Match: MatchConfig{"Records[0].eventSource": P("aws:s3")},
		When:  Or(FieldEquals("Records.0.awsRegion", "eu-west-1"), FieldEquals("Records.0.awsRegion", "eu-central-1")),
	}}, s.logger)
	s.Require().NoError(err)

	_, ok := t.FirstMatch(mustEvent(s.T(), `{"Records": [{"eventSource": "aws:s3", "awsRegion": "eu-central-1"}]}`))
	s.Assert().True(ok)

	_, ok = t.FirstMatch(mustEvent(s.T(), `{"Records": [{"eventSource": "aws:s3", "awsRegion": "us-east-1"}]}`))
	s.Assert().False(ok)

	_, ok = t.FirstMatch(mustEvent(s.T(), `{"Records": [{"eventSource": "aws:sqs", "awsRegion": "eu-west-1"}]}`))
	s.Assert().False(ok)
}

package dirmngr

import (
	stdtesting "testing"

	gc "gopkg.in/check.v1"
)

func Test(t *stdtesting.T) { gc.TestingT(t) }

type URISuite struct{}

var _ = gc.Suite(&URISuite{})

func (s *URISuite) TestSchemeDefaults(c *gc.C) {
	u, err := ParseURI("hkp://keys.example.org")
	c.Assert(err, gc.IsNil)
	c.Assert(u.Scheme, gc.Equals, "hkp")
	c.Assert(u.Host, gc.Equals, "keys.example.org")
	c.Assert(u.Port, gc.Equals, 11371)
	c.Assert(u.Transport(), gc.Equals, "http")
}

func (s *URISuite) TestHkpsDefaultPort(c *gc.C) {
	u, err := ParseURI("hkps://keys.openpgp.org")
	c.Assert(err, gc.IsNil)
	c.Assert(u.Port, gc.Equals, 443)
	c.Assert(u.Transport(), gc.Equals, "https")
}

func (s *URISuite) TestExplicitPortOverridesDefault(c *gc.C) {
	u, err := ParseURI("hkp://keys.example.org:8080/path?q=1")
	c.Assert(err, gc.IsNil)
	c.Assert(u.Port, gc.Equals, 8080)
	c.Assert(u.Path, gc.Equals, "/path")
	c.Assert(u.Query, gc.Equals, "q=1")
}

func (s *URISuite) TestBracketedIPv6Host(c *gc.C) {
	u, err := ParseURI("hkps://[2001:db8::1]:443")
	c.Assert(err, gc.IsNil)
	c.Assert(u.Host, gc.Equals, "2001:db8::1")
}

func (s *URISuite) TestRoundTripString(c *gc.C) {
	u, err := ParseURI("hkp://keys.example.org")
	c.Assert(err, gc.IsNil)
	c.Assert(u.String(), gc.Equals, "hkp://keys.example.org")
}

func (s *URISuite) TestMalformedURIRejected(c *gc.C) {
	_, err := ParseURI("://missing-scheme")
	c.Assert(err, gc.NotNil)
}

package admin

import "portfolio-site/internal/model"

// Session is either Unauthenticated or Authenticated. Documents only exist
// on an authenticated session.
type Session interface {
	isSession()
}

type Unauthenticated struct{}

type Authenticated struct {
	Documents []model.Document
}

func (Unauthenticated) isSession() {}
func (Authenticated) isSession()   {}

// State is what the document manager renders.
type State struct {
	Session    Session
	Credential string
	Loading    bool
	Uploading  bool
	Error      string
	Success    string
}

func (s State) Authenticated() bool {
	_, ok := s.Session.(Authenticated)
	return ok
}

// Documents returns the latest server list, or nil when not authenticated.
func (s State) Documents() []model.Document {
	if auth, ok := s.Session.(Authenticated); ok {
		return auth.Documents
	}
	return nil
}

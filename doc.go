/*
Package httpaction lets an action router, one that invokes actions by path
with any number of parameters, serve HTTP requests, and lets actions be
discovered from foreign mapping declarations as well as native ones.

Why?

Path based actions: an action is a plain method or func registered under
one or more paths.  Callers invoke it with ActionFactory.InvokeAction(ctx,
path, args...) and never see the func itself.

Request-scope objects where they are needed: actions, interceptors and
converters frequently need the *http.Request, the http.ResponseWriter and
the ServerContext of the request they run for.  HTTPActionFactory finds
them either in the arguments of the call or in ambient state carried by
the context, and hands them to the ParameterConverter so an action can
simply ask for them in its argument list.

Pluggable conversion: the ParameterConverter decides how the arguments of
an action are produced.  The default one matches by type, binds structs
from request parameters, and passes the context along.

Basics

Create an HTTPActionFactory, register controllers with AddActions, and
either call InvokeHTTP yourself or put a Dispatcher in front of it.

	f, _ := httpaction.NewHTTPActionFactory(map[string]any{
		"actionPathCaseSensitive": false,
	})
	f.AddActions(&UserController{})
	http.ListenAndServe(":8080", httpaction.NewDispatcher(f, nil))

Controllers

A controller declares its actions natively by implementing ActionDeclarer,
keyed by method name.  It may also implement Namespacer so relative paths
live under a namespace.  An ActionFilter (see the mapping package) can
discover actions from other declarations; a native declaration always
wins over what a filter would produce.

Request-scope resolution

When HTTPActionFactory creates an invocation it looks for the
request-scope objects in this order:

	1. exactly three call arguments: *http.Request, http.ResponseWriter,
	   *ServerContext, in that order;
	2. ambient state installed with BeginRequest or WithRequestScope;
	3. nothing.

In the first two cases the invocation is a *RequestInvocation, it becomes
the current ambient invocation, and its converter receives (request,
response, serverContext, requestInvocation) as convert params.  In the
last case the plain invocation is returned and request-scope aware
conversion is not available.

Ambient state

Ambient state lives in the context.Context of a request.  Whoever
installs it owns it and must call the func returned by BeginRequest or
WithRequestScope once the request is done.  The Dispatcher does this for
every request it serves.

*/
package httpaction

package auth

import (
	"fmt"
	"io"
	"strings"
)

// ShowCredentialGuide writes step-by-step instructions for obtaining the
// four OAuth secrets from the Twitter developer portal
func ShowCredentialGuide(w io.Writer) {
	fmt.Fprintln(w, strings.Repeat("=", 80))
	fmt.Fprintln(w, "📚 TWITTER API CREDENTIAL GUIDE")
	fmt.Fprintln(w, strings.Repeat("=", 80))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "tweetcloud signs every request with OAuth 1.0a user context.")
	fmt.Fprintln(w, "You need four values from a developer app:")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "🌐 STEP 1: Open the developer portal")
	fmt.Fprintln(w, "   - Go to https://developer.twitter.com and sign in")
	fmt.Fprintln(w, "   - Create a project and an app (or open an existing one)")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "🔑 STEP 2: Open 'Keys and tokens' for the app")
	fmt.Fprintln(w, "   ┌──────────────────────┬───────────────────────────────────────┐")
	fmt.Fprintln(w, "   │ Value                │ Where it lives                        │")
	fmt.Fprintln(w, "   ├──────────────────────┼───────────────────────────────────────┤")
	fmt.Fprintln(w, "   │ API key              │ Consumer Keys                         │")
	fmt.Fprintln(w, "   │ API secret key       │ Consumer Keys                         │")
	fmt.Fprintln(w, "   │ Access token         │ Authentication Tokens (generate)      │")
	fmt.Fprintln(w, "   │ Access token secret  │ Authentication Tokens (generate)      │")
	fmt.Fprintln(w, "   └──────────────────────┴───────────────────────────────────────┘")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "💾 STEP 3: Save them")
	fmt.Fprintln(w, "   - Run 'tweetcloud auth login' and paste each value, or")
	fmt.Fprintf(w, "   - export %s, %s, %s and %s\n", EnvAPIKey, EnvAPISecretKey, EnvAccessToken, EnvAccessTokenSecret)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "⚠️  SECURITY WARNING:")
	fmt.Fprintln(w, "   • These secrets act on behalf of your account")
	fmt.Fprintln(w, "   • NEVER commit them to a repository")
	fmt.Fprintln(w, "   • Regenerate them in the portal if they leak")
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", 80))
	fmt.Fprintln(w)
}

// ShowQuickGuide writes a condensed version for experienced users
func ShowQuickGuide(w io.Writer) {
	fmt.Fprintln(w, "\n🔑 Quick Guide: developer.twitter.com → your app → Keys and tokens")
	fmt.Fprintln(w, "   Need: API key, API secret key, access token, access token secret")
	fmt.Fprintln(w, "   Run 'tweetcloud auth guide' for detailed instructions")
}

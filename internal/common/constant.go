package common

// TokenContentType is sent on every OAuth call; ANAF issues JWT access tokens
// only when asked for them explicitly.
const TokenContentType = "jwt"

// UnknownIDPlaceholder replaces the identifier in a target directory name when
// none could be extracted from the message.
const UnknownIDPlaceholder = "NA"

// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package schema names the tables and columns of the relational store.

Queries are assembled from these definitions so a column rename touches one
file instead of every repository.
*/
package schema

import "strings"

// UserAccountTable represents the 'users.account' table
type UserAccountTable struct {
	Table            string
	ID               string
	Username         string
	Email            string
	Password         string
	Role             string
	IsVerified       string
	DisplayName      string
	AvatarURL        string
	TwoFactorEnabled string
	TwoFactorSecret  string
	OAuthProvider    string
	OAuthSubject     string
	CreatedAt        string
	UpdatedAt        string
	DeletedAt        string
}

// UserAccount is the schema definition for users.account
var UserAccount = UserAccountTable{
	Table:            "users.account",
	ID:               "id",
	Username:         "username",
	Email:            "email",
	Password:         "passwordhash",
	Role:             "role",
	IsVerified:       "isverified",
	DisplayName:      "displayname",
	AvatarURL:        "avatarurl",
	TwoFactorEnabled: "twofactorenabled",
	TwoFactorSecret:  "twofactorsecret",
	OAuthProvider:    "oauthprovider",
	OAuthSubject:     "oauthsubject",
	CreatedAt:        "createdat",
	UpdatedAt:        "updatedat",
	DeletedAt:        "deletedat",
}

// Columns returns the selectable column names in scan order.
func (t UserAccountTable) Columns() []string {
	return []string{
		t.ID, t.Username, t.Email, t.Password, t.DisplayName, t.AvatarURL,
		t.Role, t.IsVerified, t.TwoFactorEnabled, t.TwoFactorSecret,
		t.OAuthProvider, t.OAuthSubject, t.CreatedAt, t.UpdatedAt,
	}
}

// Select returns the column list as a SELECT clause body.
// Nullable text columns are coalesced to '' so they scan into plain strings.
func (t UserAccountTable) Select() string {
	nullable := map[string]bool{
		t.Password: true, t.DisplayName: true, t.AvatarURL: true,
		t.TwoFactorSecret: true, t.OAuthProvider: true, t.OAuthSubject: true,
	}

	columns := t.Columns()
	for i, column := range columns {
		if nullable[column] {
			columns[i] = "COALESCE(" + column + ", '') AS " + column
		}
	}
	return strings.Join(columns, ", ")
}
